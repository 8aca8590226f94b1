package state

import (
	"context"
	"sync"
)

// Collection is the slice variant for list resources. Fetches replace the
// items wholesale; append operations merge a single element.
type Collection[T any] struct {
	mu       sync.Mutex
	name     string
	guarded  bool
	nextSeq  uint64
	latest   uint64
	inFlight int
	terminal Phase
	items    []T
	errMsg   string
}

// NewCollection creates a collection slice for the named resource family.
func NewCollection[T any](name string, opts ...Option) *Collection[T] {
	var cfg sliceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Collection[T]{name: name, guarded: cfg.guarded}
}

// Name returns the resource family this collection is bound to.
func (c *Collection[T]) Name() string {
	return c.name
}

// DispatchFetch starts a fetch whose fulfillment replaces the items.
func (c *Collection[T]) DispatchFetch(ctx context.Context) *Operation[[]T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	c.latest = c.nextSeq
	c.inFlight++
	c.errMsg = ""
	return newOperation(ctx, c.nextSeq, c.applyReplace,
		func(op *Operation[[]T], reason string) { c.applyReject(op.seq, op.ctx, reason) })
}

// DispatchAppend starts a mutation whose fulfillment appends one element.
func (c *Collection[T]) DispatchAppend(ctx context.Context) *Operation[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	c.latest = c.nextSeq
	c.inFlight++
	c.errMsg = ""
	return newOperation(ctx, c.nextSeq, c.applyAppend,
		func(op *Operation[T], reason string) { c.applyReject(op.seq, op.ctx, reason) })
}

func (c *Collection[T]) applyReplace(op *Operation[[]T], payload []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.discards(op.seq, op.ctx) {
		return
	}
	c.items = payload
	c.errMsg = ""
	c.terminal = PhaseSucceeded
}

func (c *Collection[T]) applyAppend(op *Operation[T], payload T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.discards(op.seq, op.ctx) {
		return
	}
	c.items = append(c.items, payload)
	c.errMsg = ""
	c.terminal = PhaseSucceeded
}

func (c *Collection[T]) applyReject(seq uint64, ctx context.Context, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.discards(seq, ctx) {
		return
	}
	c.errMsg = reason
	c.terminal = PhaseFailed
}

func (c *Collection[T]) discards(seq uint64, ctx context.Context) bool {
	if !c.guarded {
		return false
	}
	if seq < c.latest {
		return true
	}
	return ctx.Err() != nil
}

// Items returns a copy of the current items.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the current item count.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Pending reports whether any operation is still in flight.
func (c *Collection[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Err returns the latest failure message, or "" when there is none.
func (c *Collection[T]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Phase returns the collection's current lifecycle state.
func (c *Collection[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return PhasePending
	}
	return c.terminal
}

// Clear resets items and error on explicit user action. Operations already in
// flight are untouched: their eventual resolutions still apply.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.errMsg = ""
	c.terminal = PhaseIdle
}

// ClearError resets only the error field.
func (c *Collection[T]) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}
