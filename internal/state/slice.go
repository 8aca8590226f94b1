package state

import (
	"context"
	"sync"
)

// Phase is the slice's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Option configures a slice at construction time.
type Option func(*sliceConfig)

type sliceConfig struct {
	guarded bool
}

// WithSequenceGuard makes the slice discard resolutions that have been
// superseded by a newer dispatch, and resolutions whose dispatch context was
// cancelled before they settled. Without it the slice keeps the legacy
// last-settled-wins behavior.
func WithSequenceGuard() Option {
	return func(c *sliceConfig) { c.guarded = true }
}

// Slice is a state container for one singular resource. It owns its state
// exclusively: all mutation goes through dispatched operations.
type Slice[T any] struct {
	mu       sync.Mutex
	name     string
	guarded  bool
	nextSeq  uint64 // next sequence number to hand out
	latest   uint64 // highest sequence number dispatched so far
	inFlight int
	terminal Phase // last applied terminal outcome; PhaseIdle before any
	data     T
	hasData  bool
	errMsg   string
}

// NewSlice creates a slice for the named resource family.
func NewSlice[T any](name string, opts ...Option) *Slice[T] {
	var cfg sliceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Slice[T]{name: name, guarded: cfg.guarded}
}

// Name returns the resource family this slice is bound to.
func (s *Slice[T]) Name() string {
	return s.name
}

// Dispatch starts a new operation: the slice becomes pending and the previous
// error is cleared. The slice does not deduplicate concurrent dispatches.
func (s *Slice[T]) Dispatch(ctx context.Context) *Operation[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.latest = s.nextSeq
	s.inFlight++
	s.errMsg = ""
	return newOperation(ctx, s.nextSeq, s.applyFulfill, s.applyReject)
}

// Run dispatches an operation and settles it from fn in a new goroutine.
func (s *Slice[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) *Operation[T] {
	op := s.Dispatch(ctx)
	go func() {
		payload, err := fn(op.Context())
		if err != nil {
			op.Reject(err)
			return
		}
		op.Fulfill(payload)
	}()
	return op
}

func (s *Slice[T]) applyFulfill(op *Operation[T], payload T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if s.discards(op.seq, op.ctx) {
		return
	}
	s.data = payload
	s.hasData = true
	s.errMsg = ""
	s.terminal = PhaseSucceeded
}

func (s *Slice[T]) applyReject(op *Operation[T], reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if s.discards(op.seq, op.ctx) {
		return
	}
	// data keeps its prior value: rejections never touch it.
	s.errMsg = reason
	s.terminal = PhaseFailed
}

// discards reports whether a resolution must be dropped. Always false in
// legacy mode: a stale resolution is applied as if current.
func (s *Slice[T]) discards(seq uint64, ctx context.Context) bool {
	if !s.guarded {
		return false
	}
	if seq < s.latest {
		return true
	}
	return ctx.Err() != nil
}

// Data returns the latest successful payload. ok is false while uninitialized;
// absence of data is not an error.
func (s *Slice[T]) Data() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.hasData
}

// Pending reports whether any operation is still in flight.
func (s *Slice[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err returns the latest failure message, or "" when there is none.
func (s *Slice[T]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Phase returns the slice's current lifecycle state.
func (s *Slice[T]) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight > 0 {
		return PhasePending
	}
	return s.terminal
}

// ClearError resets the error field. Views clear errors only through this,
// never implicitly on render.
func (s *Slice[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}
