// Package state implements the resource-slice state machine that backs every
// data family on the dashboard (portfolios, market, news, chat, actions).
//
// A slice tracks the lifecycle of zero or more outstanding operations against
// one backend resource and exposes the latest data, the latest error and a
// busy flag. By default it reproduces the legacy last-settled-wins behavior:
// whichever in-flight operation settles last determines the visible data,
// regardless of dispatch order. WithSequenceGuard opts a slice into the
// corrected behavior where a resolution superseded by a newer dispatch is
// discarded.
package state

import (
	"context"
	"sync"
)

// Operation is one asynchronous request/response unit. Exactly one terminal
// transition (Fulfill or Reject) takes effect; later calls are no-ops.
type Operation[T any] struct {
	seq     uint64
	ctx     context.Context
	once    sync.Once
	done    chan struct{}
	fulfill func(op *Operation[T], payload T)
	reject  func(op *Operation[T], reason string)
}

// Seq returns the operation's per-slice monotonic sequence number.
func (op *Operation[T]) Seq() uint64 {
	return op.seq
}

// Context returns the context the operation was dispatched with.
func (op *Operation[T]) Context() context.Context {
	return op.ctx
}

// Settled is closed once the operation has reached its terminal outcome,
// whether or not the slice applied it.
func (op *Operation[T]) Settled() <-chan struct{} {
	return op.done
}

// Fulfill resolves the operation successfully with the server payload.
func (op *Operation[T]) Fulfill(payload T) {
	op.once.Do(func() {
		op.fulfill(op, payload)
		close(op.done)
	})
}

// Reject resolves the operation with a failure. The error's message string is
// what the slice stores; extraction from structured bodies is the transport
// collaborator's job.
func (op *Operation[T]) Reject(err error) {
	op.once.Do(func() {
		reason := "unknown error"
		if err != nil {
			reason = err.Error()
		}
		op.reject(op, reason)
		close(op.done)
	})
}

func newOperation[T any](ctx context.Context, seq uint64,
	fulfill func(op *Operation[T], payload T),
	reject func(op *Operation[T], reason string)) *Operation[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Operation[T]{
		seq:     seq,
		ctx:     ctx,
		done:    make(chan struct{}),
		fulfill: fulfill,
		reject:  reject,
	}
}
