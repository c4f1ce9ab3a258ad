// Package dispatch routes agent invocations by name. The dispatcher is a
// routing table with calling-convention adaptation and nothing else: it
// holds no business state and performs at most one invocation per call.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

type handlerKind int

const (
	kindFunc handlerKind = iota
	kindAgent
)

// binding tags the handler shape at registration time so invocation
// needs no runtime inspection.
type binding struct {
	kind  handlerKind
	fn    contractx.HandlerFunc
	agent contractx.Agent
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithCallTimeout bounds every invocation. Zero means no timeout, which
// matches the historical behavior; callers can still cancel through ctx.
func WithCallTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		disp.callTimeout = d
	}
}

// Dispatcher is an in-process agent registry and router.
type Dispatcher struct {
	mu          sync.RWMutex
	bindings    map[string]binding
	callTimeout time.Duration
}

var _ contractx.Caller = (*Dispatcher)(nil)

func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bindings: make(map[string]binding),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds name to an agent. Last write wins; rebinding an existing
// name is deliberate and only logged.
func (d *Dispatcher) Register(name string, agent contractx.Agent) {
	d.put(name, binding{kind: kindAgent, agent: agent})
}

// RegisterFunc binds name to a bare handler function.
func (d *Dispatcher) RegisterFunc(name string, fn contractx.HandlerFunc) {
	d.put(name, binding{kind: kindFunc, fn: fn})
}

func (d *Dispatcher) put(name string, b binding) {
	d.mu.Lock()
	_, replaced := d.bindings[name]
	d.bindings[name] = b
	d.mu.Unlock()

	log.Info().Str("agent", name).Bool("replaced", replaced).Msg("registered agent")
}

// Call resolves name and invokes the bound handler once, returning its
// result unchanged. Unregistered names fail with ErrAgentNotFound.
func (d *Dispatcher) Call(ctx context.Context, name string, in contractx.Inputs) (any, error) {
	d.mu.RLock()
	b, ok := d.bindings[name]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrAgentNotFound, name)
	}

	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	switch b.kind {
	case kindAgent:
		return b.agent.Handle(ctx, in)
	default:
		return b.fn(ctx, in)
	}
}
