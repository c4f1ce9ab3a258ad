package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

type fakeVision struct {
	text string
	err  error

	gotMime  string
	gotImage []byte
}

func (f *fakeVision) GenerateVision(_ context.Context, _ string, mime string, image []byte) (string, error) {
	f.gotMime = mime
	f.gotImage = image
	return f.text, f.err
}

func TestDetectParsesFencedJSON(t *testing.T) {
	t.Parallel()

	model := &fakeVision{text: "```json\n[\n" +
		`{"type": "shirt", "color": "blue", "bbox": [10, 20, 110, 220], "confidence": 0.95},` + "\n" +
		`{"type": "sock", "color": "white"}` + "\n]\n```"}
	agent := New(model, "detect")

	items, err := agent.Detect(context.Background(), []byte{1, 2, 3}, "jpeg")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	shirt := items[0]
	if shirt.Type != "shirt" || shirt.Color != "blue" {
		t.Fatalf("items[0] = %#v", shirt)
	}
	if shirt.Confidence != 0.95 {
		t.Fatalf("Confidence = %v, want 0.95", shirt.Confidence)
	}
	if shirt.BBox != [4]float64{10, 20, 110, 220} {
		t.Fatalf("BBox = %v", shirt.BBox)
	}
	if shirt.ItemID == "" || items[1].ItemID == shirt.ItemID {
		t.Fatal("items must carry distinct non-empty identifiers")
	}

	// Confidence omitted by the model gets the default.
	if items[1].Confidence != defaultConfidence {
		t.Fatalf("items[1].Confidence = %v, want default", items[1].Confidence)
	}

	if model.gotMime != "jpeg" {
		t.Fatalf("mime = %q", model.gotMime)
	}
}

func TestDetectBareJSON(t *testing.T) {
	t.Parallel()

	model := &fakeVision{text: `[{"type": "towel", "color": "grey", "confidence": 0.4}]`}
	agent := New(model, "detect")

	items, err := agent.Detect(context.Background(), []byte{1}, "png")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(items) != 1 || items[0].Confidence != 0.4 {
		t.Fatalf("items = %#v", items)
	}
}

func TestDetectUnparseableResponse(t *testing.T) {
	t.Parallel()

	model := &fakeVision{text: "I see two shirts and a sock."}
	agent := New(model, "detect")

	_, err := agent.Detect(context.Background(), []byte{1}, "png")
	if !errors.Is(err, contractx.ErrAIUnavailable) {
		t.Fatalf("error = %v, want ErrAIUnavailable", err)
	}
}

func TestDetectModelFailurePropagates(t *testing.T) {
	t.Parallel()

	wrapped := errors.New("quota exhausted")
	model := &fakeVision{err: wrapped}
	agent := New(model, "detect")

	_, err := agent.Detect(context.Background(), []byte{1}, "png")
	if !errors.Is(err, wrapped) {
		t.Fatalf("error = %v, want the model failure", err)
	}
}

func TestHandleValidatesImage(t *testing.T) {
	t.Parallel()

	agent := New(&fakeVision{text: "[]"}, "detect")

	if _, err := agent.Handle(context.Background(), contractx.Inputs{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing image: error = %v, want ErrValidation", err)
	}
	if _, err := agent.Handle(context.Background(), contractx.Inputs{"image_b64": "!!not base64!!"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("bad base64: error = %v, want ErrValidation", err)
	}
}

func TestHandleDefaultsMime(t *testing.T) {
	t.Parallel()

	model := &fakeVision{text: "[]"}
	agent := New(model, "detect")

	encoded := base64.StdEncoding.EncodeToString([]byte("img"))
	if _, err := agent.Handle(context.Background(), contractx.Inputs{"image_b64": encoded}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if model.gotMime != "png" {
		t.Fatalf("mime = %q, want png default", model.gotMime)
	}
	if string(model.gotImage) != "img" {
		t.Fatalf("image = %q", model.gotImage)
	}
}
