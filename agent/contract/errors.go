package contract

import "errors"

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAIUnavailable = errors.New("ai service unavailable")
	ErrTaskLost      = errors.New("approval task lost")
	ErrInvariant     = errors.New("invariant violation")
	ErrValidation    = errors.New("validation failed")
)
