package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

// lowRatingThreshold marks a comment as an issue when its rating falls
// below it.
const lowRatingThreshold = 3

// FeedbackStore is the slice of the memory bank the feedback agent reads.
type FeedbackStore interface {
	RecentFeedback(ctx context.Context, limit int) ([]storex.Feedback, error)
}

// FeedbackAgent averages ratings and collects low-rating comments.
type FeedbackAgent struct {
	store    FeedbackStore
	narrator contractx.TextGenerator
}

func NewFeedbackAgent(store FeedbackStore, narrator contractx.TextGenerator) *FeedbackAgent {
	return &FeedbackAgent{store: store, narrator: narrator}
}

func (a *FeedbackAgent) Name() string { return contractx.AgentFeedback }

func (a *FeedbackAgent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	return a.Analyze(ctx)
}

func (a *FeedbackAgent) Analyze(ctx context.Context) (contractx.FeedbackReport, error) {
	entries, err := a.store.RecentFeedback(ctx, recordWindow)
	if err != nil {
		return contractx.FeedbackReport{}, fmt.Errorf("feedback: read feedback: %w", err)
	}

	if len(entries) == 0 {
		return contractx.FeedbackReport{
			Issues:    []string{},
			AISummary: "No feedback yet.",
		}, nil
	}

	sum := 0
	issues := []string{}
	for _, f := range entries {
		sum += f.Rating
		if f.Rating < lowRatingThreshold && f.Comment != "" {
			issues = append(issues, f.Comment)
		}
	}
	avg := math.Round(float64(sum)/float64(len(entries))*10) / 10

	report := contractx.FeedbackReport{
		AvgRating: avg,
		Issues:    issues,
	}

	prompt := fmt.Sprintf("Analyze feedback. Avg Rating: %.1f. Issues: %s. Summarize key pain points in 1 sentence.",
		avg, strings.Join(issues, "; "))
	summary, err := a.narrator.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("feedback narrative unavailable, using fallback")
		summary = fmt.Sprintf("Avg Rating %.1f. Issues: %d found.", avg, len(issues))
	}
	report.AISummary = summary

	return report, nil
}
