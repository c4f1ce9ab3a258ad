// Package fabric answers care-instruction lookups, backed by a
// knowledge base in the store so each fabric is asked about once.
package fabric

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

// defaultCare stands in when the AI lookup fails.
const defaultCare = "Wash cold, tumble dry low."

// Store is the slice of the memory bank the fabric expert needs.
type Store interface {
	Fabric(ctx context.Context, key string) (*storex.FabricEntry, error)
	SaveFabric(ctx context.Context, e *storex.FabricEntry) error
}

// Agent resolves fabric hints to care instructions.
type Agent struct {
	store    Store
	narrator contractx.TextGenerator
	prompt   string
}

func New(store Store, narrator contractx.TextGenerator, expertPrompt string) *Agent {
	return &Agent{store: store, narrator: narrator, prompt: expertPrompt}
}

func (a *Agent) Name() string { return contractx.AgentFabric }

func (a *Agent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	hints := map[string]string{}
	if raw, ok := in["hints"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				hints[k] = s
			}
		}
	}
	return a.Advise(ctx, hints)
}

// Advise returns care instructions for the hinted garment, consulting
// the knowledge base first. Misses call the AI service and persist the
// answer; an AI failure persists the default care line instead so the
// lookup stays deterministic afterwards.
func (a *Agent) Advise(ctx context.Context, hints map[string]string) (contractx.FabricAdvice, error) {
	key := cacheKey(hints)

	existing, err := a.store.Fabric(ctx, key)
	if err != nil {
		return contractx.FabricAdvice{}, fmt.Errorf("fabric: read kb: %w", err)
	}
	if existing != nil {
		return contractx.FabricAdvice{
			FabricType:       existing.FabricType,
			CareInstructions: existing.CareInstructions,
		}, nil
	}

	fabricType := hints["type"]
	if fabricType == "" {
		fabricType = "unknown"
	}

	query := fmt.Sprintf("%s\n\nGarment: %s %s", a.prompt, hints["color"], fabricType)
	care, err := a.narrator.GenerateText(ctx, strings.TrimSpace(query))
	if err != nil {
		log.Warn().Err(err).Str("fabric", fabricType).Msg("care lookup unavailable, using default")
		care = defaultCare
	}

	if err := a.store.SaveFabric(ctx, &storex.FabricEntry{
		Key:              key,
		FabricType:       fabricType,
		CareInstructions: care,
	}); err != nil {
		return contractx.FabricAdvice{}, fmt.Errorf("fabric: save kb: %w", err)
	}

	return contractx.FabricAdvice{
		FabricType:       fabricType,
		CareInstructions: care,
	}, nil
}

// cacheKey hashes the hints so equivalent lookups share a knowledge-base
// row. encoding/json sorts map keys, which canonicalizes the input.
func cacheKey(hints map[string]string) string {
	raw, _ := json.Marshal(hints)
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
