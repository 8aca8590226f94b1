package state

import (
	"context"
	"sync"

	"portfolio_go/internal/domain"
)

// FailureHook builds the message appended to the transcript when a send
// fails. Returning ok=false suppresses the injection. This is a chat-specific
// policy: no other resource family inherits it.
type FailureHook func(reason string) (domain.Message, bool)

// DefaultFailureHook surfaces the error as a synthetic assistant turn.
func DefaultFailureHook(reason string) (domain.Message, bool) {
	return domain.Message{
		Role:    domain.RoleAssistant,
		Content: "Sorry, I encountered an error: " + reason,
	}, true
}

// ChatOption configures a ChatSlice at construction time.
type ChatOption func(*ChatSlice)

// WithFailureHook replaces the synthetic-error policy.
func WithFailureHook(hook FailureHook) ChatOption {
	return func(c *ChatSlice) { c.onFailure = hook }
}

// ChatSlice owns one conversation transcript. Each send appends the user
// message optimistically before the network call resolves; fulfillment
// appends exactly one assistant message, rejection appends exactly one
// synthetic assistant message via the failure hook.
type ChatSlice struct {
	mu        sync.Mutex
	inFlight  int
	terminal  Phase
	messages  []domain.Message
	errMsg    string
	onFailure FailureHook
}

// NewChatSlice creates a chat slice with the default failure policy.
func NewChatSlice(opts ...ChatOption) *ChatSlice {
	c := &ChatSlice{onFailure: DefaultFailureHook}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends the user message to the transcript immediately and returns an
// operation to settle with the assistant's reply text, plus a copy of the
// transcript-so-far to send as the request payload.
func (c *ChatSlice) Send(ctx context.Context, content string) (*Operation[string], []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, domain.Message{Role: domain.RoleUser, Content: content})
	c.inFlight++
	c.errMsg = ""
	payload := make([]domain.Message, len(c.messages))
	copy(payload, c.messages)
	op := newOperation(ctx, 0, c.applyReply, c.applyFailure)
	return op, payload
}

func (c *ChatSlice) applyReply(_ *Operation[string], reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	c.messages = append(c.messages, domain.Message{Role: domain.RoleAssistant, Content: reply})
	c.errMsg = ""
	c.terminal = PhaseSucceeded
}

func (c *ChatSlice) applyFailure(_ *Operation[string], reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	c.errMsg = reason
	c.terminal = PhaseFailed
	if c.onFailure == nil {
		return
	}
	if msg, ok := c.onFailure(reason); ok {
		c.messages = append(c.messages, msg)
	}
}

// Messages returns a copy of the transcript.
func (c *ChatSlice) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Pending reports whether a send is still in flight.
func (c *ChatSlice) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Err returns the latest failure message, or "" when there is none.
func (c *ChatSlice) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Phase returns the chat slice's current lifecycle state.
func (c *ChatSlice) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return PhasePending
	}
	return c.terminal
}

// Reset clears the transcript. Only an explicit user action calls this.
func (c *ChatSlice) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.errMsg = ""
	c.terminal = PhaseIdle
}
