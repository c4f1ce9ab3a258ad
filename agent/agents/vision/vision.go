// Package vision detects clothing items on intake photos. Unlike the
// other agents it has no fallback: a failed detection blocks the intake
// workflow and must surface to the user.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

// defaultConfidence fills in when the model omits a score.
const defaultConfidence = 0.9

// Agent runs the detection prompt over an image and normalizes the
// model's JSON into DetectedItems.
type Agent struct {
	model  contractx.VisionGenerator
	prompt string
}

func New(model contractx.VisionGenerator, detectionPrompt string) *Agent {
	return &Agent{model: model, prompt: detectionPrompt}
}

func (a *Agent) Name() string { return contractx.AgentVision }

func (a *Agent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	encoded := in.String("image_b64")
	if encoded == "" {
		return nil, fmt.Errorf("%w: image_b64 is required", contractx.ErrValidation)
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", contractx.ErrValidation, err)
	}
	mime := in.String("mime")
	if mime == "" {
		mime = "png"
	}
	return a.Detect(ctx, image, mime)
}

// rawItem matches the model's output shape. Confidence is a pointer so a
// missing score is distinguishable from zero.
type rawItem struct {
	Type       string    `json:"type"`
	Color      string    `json:"color"`
	BBox       []float64 `json:"bbox"`
	Confidence *float64  `json:"confidence"`
}

// Detect prompts the model and parses its JSON list. Every returned item
// gets a fresh unique identifier.
func (a *Agent) Detect(ctx context.Context, image []byte, mime string) ([]contractx.DetectedItem, error) {
	text, err := a.model.GenerateVision(ctx, a.prompt, mime, image)
	if err != nil {
		return nil, fmt.Errorf("vision: detect: %w", err)
	}

	var raw []rawItem
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: unparseable detection response: %v", contractx.ErrAIUnavailable, err)
	}

	items := make([]contractx.DetectedItem, 0, len(raw))
	for _, r := range raw {
		item := contractx.DetectedItem{
			ItemID:     uuid.NewString(),
			Type:       r.Type,
			Color:      r.Color,
			Confidence: defaultConfidence,
		}
		if r.Confidence != nil {
			item.Confidence = *r.Confidence
		}
		for i := 0; i < len(r.BBox) && i < 4; i++ {
			item.BBox[i] = r.BBox[i]
		}
		items = append(items, item)
	}
	return items, nil
}

// stripFences removes a markdown code fence around the model's JSON.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	} else {
		return text
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
