// Package hitl is the human-in-the-loop approval gate. AwaitApproval
// blocks until a human moves the task out of waiting; the caller bounds
// the wait through ctx. In-process resolutions wake waiters immediately
// over a channel; a periodic store re-check catches resolutions made by
// another process sharing the database.
package hitl

import (
	"context"
	"fmt"
	"sync"
	"time"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

const defaultRecheck = 500 * time.Millisecond

// Store is the slice of the memory bank the gate needs.
type Store interface {
	CreateTaskIfAbsent(ctx context.Context, orderID, overlayURL string) error
	Task(ctx context.Context, orderID string) (*storex.ApprovalTask, error)
	SetTaskStatus(ctx context.Context, orderID, status string) error
}

// Option customizes a Gate.
type Option func(*Gate)

// WithRecheckInterval tunes how often waiters re-read the store. Tests
// shrink it.
func WithRecheckInterval(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.recheck = d
		}
	}
}

// Gate tracks waiters per order and bridges them to the store.
type Gate struct {
	store   Store
	recheck time.Duration

	mu      sync.Mutex
	waiters map[string][]chan storex.ApprovalTask
}

func New(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:   store,
		recheck: defaultRecheck,
		waiters: make(map[string][]chan storex.ApprovalTask),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Name() string { return contractx.AgentHITL }

func (g *Gate) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	orderID := in.String("order_id")
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", contractx.ErrValidation)
	}
	return g.AwaitApproval(ctx, orderID, in.String("overlay"))
}

// AwaitApproval creates the task in waiting state if absent, then blocks
// until it reaches a terminal state. A task that disappears before
// resolving fails with ErrTaskLost — the one gate error that propagates.
func (g *Gate) AwaitApproval(ctx context.Context, orderID, overlayURL string) (storex.ApprovalTask, error) {
	if err := g.store.CreateTaskIfAbsent(ctx, orderID, overlayURL); err != nil {
		return storex.ApprovalTask{}, fmt.Errorf("hitl: create task: %w", err)
	}

	ch := g.subscribe(orderID)
	defer g.unsubscribe(orderID, ch)

	// The task may already be resolved, or resolved by another process
	// between re-checks.
	if task, done, err := g.check(ctx, orderID); done || err != nil {
		return task, err
	}

	ticker := time.NewTicker(g.recheck)
	defer ticker.Stop()

	for {
		select {
		case task := <-ch:
			return task, nil
		case <-ticker.C:
			if task, done, err := g.check(ctx, orderID); done || err != nil {
				return task, err
			}
		case <-ctx.Done():
			return storex.ApprovalTask{}, ctx.Err()
		}
	}
}

// Resolve records the human's decision and wakes in-process waiters.
func (g *Gate) Resolve(ctx context.Context, orderID, status string) error {
	if status != storex.TaskApproved && status != storex.TaskRejected {
		return fmt.Errorf("%w: status must be %q or %q", contractx.ErrValidation,
			storex.TaskApproved, storex.TaskRejected)
	}

	task, err := g.store.Task(ctx, orderID)
	if err != nil {
		return fmt.Errorf("hitl: read task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("%w: order %s", contractx.ErrTaskLost, orderID)
	}

	if err := g.store.SetTaskStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("hitl: set status: %w", err)
	}
	task.Status = status

	g.mu.Lock()
	for _, ch := range g.waiters[orderID] {
		select {
		case ch <- *task:
		default:
		}
	}
	g.mu.Unlock()

	return nil
}

func (g *Gate) check(ctx context.Context, orderID string) (storex.ApprovalTask, bool, error) {
	task, err := g.store.Task(ctx, orderID)
	if err != nil {
		return storex.ApprovalTask{}, false, fmt.Errorf("hitl: read task: %w", err)
	}
	if task == nil {
		return storex.ApprovalTask{}, false, fmt.Errorf("%w: order %s", contractx.ErrTaskLost, orderID)
	}
	if task.Status != storex.TaskWaiting {
		return *task, true, nil
	}
	return storex.ApprovalTask{}, false, nil
}

func (g *Gate) subscribe(orderID string) chan storex.ApprovalTask {
	ch := make(chan storex.ApprovalTask, 1)
	g.mu.Lock()
	g.waiters[orderID] = append(g.waiters[orderID], ch)
	g.mu.Unlock()
	return ch
}

func (g *Gate) unsubscribe(orderID string, ch chan storex.ApprovalTask) {
	g.mu.Lock()
	defer g.mu.Unlock()

	chans := g.waiters[orderID]
	for i, c := range chans {
		if c == ch {
			g.waiters[orderID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(g.waiters[orderID]) == 0 {
		delete(g.waiters, orderID)
	}
}
