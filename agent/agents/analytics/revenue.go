// Package analytics holds the three analysis agents (revenue, logistics,
// feedback) and the orchestrator that fans out to them. The numeric
// metrics are always computed deterministically from the store; only the
// one-line prose depends on the AI service, and every AI call has a
// templated fallback.
package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

const defaultTimeframe = "last_7_days"

// recordWindow bounds how much history an analysis pass reads.
const recordWindow = 100

// OrderStore is the slice of the memory bank the order-based agents read.
type OrderStore interface {
	RecentOrders(ctx context.Context, limit int) ([]storex.Order, error)
}

// RevenueAgent sums order totals and glosses the figure.
type RevenueAgent struct {
	store    OrderStore
	narrator contractx.TextGenerator
}

func NewRevenueAgent(store OrderStore, narrator contractx.TextGenerator) *RevenueAgent {
	return &RevenueAgent{store: store, narrator: narrator}
}

func (a *RevenueAgent) Name() string { return contractx.AgentRevenue }

func (a *RevenueAgent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	timeframe := in.String("timeframe")
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	return a.Analyze(ctx, timeframe)
}

func (a *RevenueAgent) Analyze(ctx context.Context, timeframe string) (contractx.RevenueReport, error) {
	orders, err := a.store.RecentOrders(ctx, recordWindow)
	if err != nil {
		return contractx.RevenueReport{}, fmt.Errorf("revenue: read orders: %w", err)
	}

	var total float64
	for _, o := range orders {
		total += o.Total
	}

	report := contractx.RevenueReport{
		RevenueTotal: total,
		Timeframe:    timeframe,
	}

	prompt := fmt.Sprintf("Analyze this revenue: $%s for %s. Brief 1-sentence insight.",
		formatAmount(total), timeframe)
	summary, err := a.narrator.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("revenue narrative unavailable, using fallback")
		summary = fmt.Sprintf("Total Revenue is $%s.", formatAmount(total))
	}
	report.AISummary = summary

	return report, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
