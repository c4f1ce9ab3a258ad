// Package notify delivers push notifications. Message copy can be
// polished by the AI service; delivery never depends on it.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

// Option customizes an Agent.
type Option func(*Agent)

// WithCopywriter lets the agent rewrite message copy through the AI
// service before delivery. Failures fall back to the raw message.
func WithCopywriter(narrator contractx.TextGenerator) Option {
	return func(a *Agent) {
		a.narrator = narrator
	}
}

// Agent sends one notification per invocation.
type Agent struct {
	pusher   contractx.Pusher
	narrator contractx.TextGenerator
}

func New(pusher contractx.Pusher, opts ...Option) *Agent {
	a := &Agent{pusher: pusher}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string { return contractx.AgentNotification }

func (a *Agent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	phone := strings.TrimSpace(in.String("phone"))
	message := in.String("message")
	if message == "" {
		// The business app historically sent the text under "msg".
		message = in.String("msg")
	}
	if phone == "" || message == "" {
		return nil, fmt.Errorf("%w: phone and message are required", contractx.ErrValidation)
	}
	return a.Send(ctx, phone, message)
}

func (a *Agent) Send(ctx context.Context, phone, message string) (contractx.PushReceipt, error) {
	message = a.polish(ctx, message)

	if err := a.pusher.Push(ctx, phone, message); err != nil {
		return contractx.PushReceipt{}, fmt.Errorf("notify: deliver to %s: %w", phone, err)
	}

	log.Info().Str("phone", phone).Msg("notification sent")
	return contractx.PushReceipt{
		Status:    "sent",
		Recipient: phone,
		Message:   message,
	}, nil
}

func (a *Agent) polish(ctx context.Context, message string) string {
	if a.narrator == nil {
		return message
	}
	prompt := fmt.Sprintf(
		"Rewrite this laundry-service push notification in one friendly sentence, keep any code verbatim: %q", message)
	polished, err := a.narrator.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("copywriting unavailable, sending raw message")
		return message
	}
	return polished
}
