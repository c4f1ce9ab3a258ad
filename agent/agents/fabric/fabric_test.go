package fabric

import (
	"context"
	"testing"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

type fakeStore struct {
	entries map[string]*storex.FabricEntry
	saved   []storex.FabricEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*storex.FabricEntry)}
}

func (f *fakeStore) Fabric(_ context.Context, key string) (*storex.FabricEntry, error) {
	return f.entries[key], nil
}

func (f *fakeStore) SaveFabric(_ context.Context, e *storex.FabricEntry) error {
	f.entries[e.Key] = e
	f.saved = append(f.saved, *e)
	return nil
}

type fakeNarrator struct {
	text  string
	err   error
	calls int
}

func (f *fakeNarrator) GenerateText(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestAdviseMissConsultsAIAndPersists(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	narrator := &fakeNarrator{text: "Dry clean only."}
	agent := New(store, narrator, "expert")

	advice, err := agent.Advise(context.Background(), map[string]string{"type": "silk", "color": "red"})
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if advice.FabricType != "silk" || advice.CareInstructions != "Dry clean only." {
		t.Fatalf("advice = %#v", advice)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d entries, want 1", len(store.saved))
	}
}

func TestAdviseHitSkipsAI(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	narrator := &fakeNarrator{text: "Dry clean only."}
	agent := New(store, narrator, "expert")

	hints := map[string]string{"type": "silk", "color": "red"}
	if _, err := agent.Advise(context.Background(), hints); err != nil {
		t.Fatal(err)
	}

	advice, err := agent.Advise(context.Background(), hints)
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if advice.CareInstructions != "Dry clean only." {
		t.Fatalf("advice = %#v, want the stored answer", advice)
	}
	if narrator.calls != 1 {
		t.Fatalf("narrator called %d times, want 1", narrator.calls)
	}
}

func TestAdviseAIFailurePersistsDefault(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	narrator := &fakeNarrator{err: contractx.ErrAIUnavailable}
	agent := New(store, narrator, "expert")

	hints := map[string]string{"type": "wool"}
	advice, err := agent.Advise(context.Background(), hints)
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if advice.CareInstructions != defaultCare {
		t.Fatalf("CareInstructions = %q, want the default", advice.CareInstructions)
	}

	// The default is persisted, so later lookups never re-ask the AI.
	if _, err := agent.Advise(context.Background(), hints); err != nil {
		t.Fatal(err)
	}
	if narrator.calls != 1 {
		t.Fatalf("narrator called %d times, want 1", narrator.calls)
	}
}

func TestAdviseUnknownType(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	agent := New(store, &fakeNarrator{text: "Handle gently."}, "expert")

	advice, err := agent.Advise(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Advise() error = %v", err)
	}
	if advice.FabricType != "unknown" {
		t.Fatalf("FabricType = %q, want unknown", advice.FabricType)
	}
}

func TestCacheKeyOrderInsensitive(t *testing.T) {
	t.Parallel()

	a := cacheKey(map[string]string{"type": "silk", "color": "red"})
	b := cacheKey(map[string]string{"color": "red", "type": "silk"})
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a == cacheKey(map[string]string{"type": "wool"}) {
		t.Fatal("distinct hints must not collide")
	}
}
