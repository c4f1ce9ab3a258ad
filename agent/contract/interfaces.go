package contract

import "context"

// Agent is a named unit exposing one capability behind a uniform call
// shape. Handle receives the invocation inputs and returns an arbitrary
// result; heterogeneity across agents is erased by the dispatcher.
type Agent interface {
	Name() string
	Handle(ctx context.Context, in Inputs) (any, error)
}

// HandlerFunc adapts a bare function to the dispatcher's call shape.
type HandlerFunc func(ctx context.Context, in Inputs) (any, error)

// Caller is the dispatch surface agents and the HTTP layer depend on.
type Caller interface {
	Call(ctx context.Context, name string, in Inputs) (any, error)
}

// TextGenerator produces a natural-language gloss for a prompt. Callers
// must treat failure as expected and keep a deterministic fallback.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// VisionGenerator runs a multimodal prompt over raw image bytes.
type VisionGenerator interface {
	GenerateVision(ctx context.Context, prompt, mime string, image []byte) (string, error)
}

// Pusher delivers a push notification to a phone number.
type Pusher interface {
	Push(ctx context.Context, phone, message string) error
}
