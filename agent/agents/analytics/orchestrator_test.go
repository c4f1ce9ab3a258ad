package analytics

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

type fakeCaller struct {
	results map[string]any
	errs    map[string]error
}

func (f *fakeCaller) Call(_ context.Context, name string, _ contractx.Inputs) (any, error) {
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.results[name], nil
}

func TestSummarizeAllBranchesSucceed(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{results: map[string]any{
		contractx.AgentRevenue:   contractx.RevenueReport{RevenueTotal: 150, AISummary: "revenue up"},
		contractx.AgentLogistics: contractx.LogisticsReport{Efficiency: 50, AISummary: "half done"},
		contractx.AgentFeedback:  contractx.FeedbackReport{AvgRating: 4.5, AISummary: "customers happy"},
	}}
	o := NewOrchestrator(caller, &fakeNarrator{text: "business is healthy"}, "combine")

	summary, err := o.Summarize(context.Background(), "last_7_days")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Timeframe != "last_7_days" {
		t.Fatalf("Timeframe = %q", summary.Timeframe)
	}
	if summary.RevenueAnalysis != "revenue up" ||
		summary.LogisticsAnalysis != "half done" ||
		summary.FeedbackAnalysis != "customers happy" {
		t.Fatalf("summary = %#v, want the three branch narratives", summary)
	}
	if summary.Overall != "business is healthy" {
		t.Fatalf("Overall = %q, want synthesized narrative", summary.Overall)
	}
}

func TestSummarizePerBranchFallback(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{
		results: map[string]any{
			contractx.AgentLogistics: contractx.LogisticsReport{Efficiency: 80, AvgTurnaround: 24, AISummary: "mostly done"},
			contractx.AgentFeedback:  contractx.FeedbackReport{AvgRating: 4.0, AISummary: "solid"},
		},
		errs: map[string]error{
			contractx.AgentRevenue: errors.New("store offline"),
		},
	}
	o := NewOrchestrator(caller, &fakeNarrator{text: "overall fine"}, "combine")

	summary, err := o.Summarize(context.Background(), "last_7_days")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.RevenueAnalysis != "Total Revenue: $0" {
		t.Fatalf("RevenueAnalysis = %q, want templated fallback for the failed branch", summary.RevenueAnalysis)
	}
	// Only the failing branch degrades.
	if summary.LogisticsAnalysis != "mostly done" || summary.FeedbackAnalysis != "solid" {
		t.Fatalf("summary = %#v, want surviving branches intact", summary)
	}
}

func TestSummarizeCombinedNarrativeFallback(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{results: map[string]any{
		contractx.AgentRevenue:   contractx.RevenueReport{AISummary: "r"},
		contractx.AgentLogistics: contractx.LogisticsReport{AISummary: "l"},
		contractx.AgentFeedback:  contractx.FeedbackReport{AISummary: "f"},
	}}
	o := NewOrchestrator(caller, &fakeNarrator{err: contractx.ErrAIUnavailable}, "combine")

	summary, err := o.Summarize(context.Background(), "last_7_days")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Overall != combinedFallback {
		t.Fatalf("Overall = %q, want %q", summary.Overall, combinedFallback)
	}
}

func TestHandleDefaultsTimeframe(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{errs: map[string]error{
		contractx.AgentRevenue:   errors.New("down"),
		contractx.AgentLogistics: errors.New("down"),
		contractx.AgentFeedback:  errors.New("down"),
	}}
	o := NewOrchestrator(caller, &fakeNarrator{err: contractx.ErrAIUnavailable}, "combine")

	res, err := o.Handle(context.Background(), contractx.Inputs{})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	summary, ok := res.(contractx.CombinedSummary)
	if !ok {
		t.Fatalf("Handle() = %T, want CombinedSummary", res)
	}
	if summary.Timeframe != defaultTimeframe {
		t.Fatalf("Timeframe = %q, want default", summary.Timeframe)
	}
	if summary.LogisticsAnalysis != "Efficiency: 0% (Avg Turnaround: 0h)" {
		t.Fatalf("LogisticsAnalysis = %q, want zero-value template", summary.LogisticsAnalysis)
	}
	if summary.FeedbackAnalysis != "Avg Rating: 0 stars. Issues: None" {
		t.Fatalf("FeedbackAnalysis = %q, want zero-value template", summary.FeedbackAnalysis)
	}
}
