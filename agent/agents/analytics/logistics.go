package analytics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

// avgTurnaroundHours is a fixed placeholder until per-order turnaround
// tracking lands.
const avgTurnaroundHours = 24

// LogisticsAgent reports what share of recent orders reached a terminal
// state. An empty order book reads as fully efficient: nothing pending.
type LogisticsAgent struct {
	store    OrderStore
	narrator contractx.TextGenerator
}

func NewLogisticsAgent(store OrderStore, narrator contractx.TextGenerator) *LogisticsAgent {
	return &LogisticsAgent{store: store, narrator: narrator}
}

func (a *LogisticsAgent) Name() string { return contractx.AgentLogistics }

func (a *LogisticsAgent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	return a.Analyze(ctx)
}

func (a *LogisticsAgent) Analyze(ctx context.Context) (contractx.LogisticsReport, error) {
	orders, err := a.store.RecentOrders(ctx, recordWindow)
	if err != nil {
		return contractx.LogisticsReport{}, fmt.Errorf("logistics: read orders: %w", err)
	}

	if len(orders) == 0 {
		return contractx.LogisticsReport{
			Efficiency: 100,
			AISummary:  "No orders to analyze.",
		}, nil
	}

	finished := 0
	for _, o := range orders {
		if o.Status == storex.StatusFinished || o.Status == storex.StatusDelivered {
			finished++
		}
	}
	efficiency := finished * 100 / len(orders)

	report := contractx.LogisticsReport{
		Efficiency:    efficiency,
		AvgTurnaround: avgTurnaroundHours,
	}

	prompt := fmt.Sprintf("Analyze logistics: %d%% efficiency, %dh turnaround. Brief 1-sentence insight.",
		efficiency, avgTurnaroundHours)
	summary, err := a.narrator.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("logistics narrative unavailable, using fallback")
		summary = fmt.Sprintf("Efficiency is %d%%.", efficiency)
	}
	report.AISummary = summary

	return report, nil
}
