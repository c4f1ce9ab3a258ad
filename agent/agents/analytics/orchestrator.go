package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

// combinedFallback stands in when the second-order narrative call fails.
const combinedFallback = "Combined analysis unavailable."

// Orchestrator fans out to the revenue, logistics and feedback agents
// through the dispatcher, joins their results, and synthesizes a combined
// narrative. It never fails the aggregate view: a failing branch degrades
// to its templated line, the others keep their real analyses.
type Orchestrator struct {
	a2a      contractx.Caller
	narrator contractx.TextGenerator
	prompt   string
}

func NewOrchestrator(a2a contractx.Caller, narrator contractx.TextGenerator, combinedPrompt string) *Orchestrator {
	return &Orchestrator{a2a: a2a, narrator: narrator, prompt: combinedPrompt}
}

func (o *Orchestrator) Name() string { return contractx.AgentOrchestrator }

func (o *Orchestrator) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	timeframe := in.String("timeframe")
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	return o.Summarize(ctx, timeframe)
}

// Summarize runs the three analysis branches concurrently and joins them
// behind a single barrier; no partial results escape before all branches
// settle.
func (o *Orchestrator) Summarize(ctx context.Context, timeframe string) (contractx.CombinedSummary, error) {
	names := []string{contractx.AgentRevenue, contractx.AgentLogistics, contractx.AgentFeedback}
	results := make([]any, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			res, err := o.a2a.Call(gctx, name, contractx.Inputs{"timeframe": timeframe})
			if err != nil {
				log.Error().Err(err).Str("agent", name).Msg("analysis branch failed")
				return nil // branch failures degrade, never abort the join
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	revenue := revenueLine(results[0])
	logistics := logisticsLine(results[1])
	feedback := feedbackLine(results[2])

	summary := contractx.CombinedSummary{
		Timeframe:         timeframe,
		RevenueAnalysis:   revenue,
		LogisticsAnalysis: logistics,
		FeedbackAnalysis:  feedback,
	}

	prompt := fmt.Sprintf("%s\n\nRevenue: %s\nLogistics: %s\nFeedback: %s",
		o.prompt, revenue, logistics, feedback)
	overall, err := o.narrator.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("combined narrative unavailable, using fallback")
		overall = combinedFallback
	}
	summary.Overall = overall

	return summary, nil
}

func revenueLine(res any) string {
	report, ok := res.(contractx.RevenueReport)
	if ok && strings.TrimSpace(report.AISummary) != "" {
		return report.AISummary
	}
	return fmt.Sprintf("Total Revenue: $%s", formatAmount(report.RevenueTotal))
}

func logisticsLine(res any) string {
	report, ok := res.(contractx.LogisticsReport)
	if ok && strings.TrimSpace(report.AISummary) != "" {
		return report.AISummary
	}
	return fmt.Sprintf("Efficiency: %d%% (Avg Turnaround: %dh)", report.Efficiency, report.AvgTurnaround)
}

func feedbackLine(res any) string {
	report, ok := res.(contractx.FeedbackReport)
	if ok && strings.TrimSpace(report.AISummary) != "" {
		return report.AISummary
	}
	issues := "None"
	if len(report.Issues) > 0 {
		issues = strings.Join(report.Issues, ", ")
	}
	return fmt.Sprintf("Avg Rating: %s stars. Issues: %s", formatAmount(report.AvgRating), issues)
}
