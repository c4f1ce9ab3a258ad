package push

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogPusher writes notifications to the log instead of a provider. Used
// when no provider URL is configured, e.g. local development.
type LogPusher struct{}

func (LogPusher) Push(_ context.Context, phone, message string) error {
	log.Info().Str("phone", phone).Str("message", message).Msg("push notification")
	return nil
}
