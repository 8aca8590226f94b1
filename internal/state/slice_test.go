package state

import (
	"context"
	"errors"
	"testing"
)

func TestSlice_PendingStrictlyBetweenDispatchAndResolution(t *testing.T) {
	s := NewSlice[int]("test")

	if s.Pending() {
		t.Fatal("new slice should not be pending")
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %v", s.Phase())
	}

	op := s.Dispatch(context.Background())
	if !s.Pending() {
		t.Error("slice should be pending after dispatch")
	}
	if s.Phase() != PhasePending {
		t.Errorf("expected pending, got %v", s.Phase())
	}

	op.Fulfill(42)
	if s.Pending() {
		t.Error("slice should not be pending after fulfillment")
	}
	if s.Phase() != PhaseSucceeded {
		t.Errorf("expected succeeded, got %v", s.Phase())
	}

	got, ok := s.Data()
	if !ok || got != 42 {
		t.Errorf("expected data 42, got %d (ok=%v)", got, ok)
	}
}

func TestSlice_RejectSetsErrorAndLeavesData(t *testing.T) {
	s := NewSlice[string]("test")

	op := s.Dispatch(context.Background())
	op.Fulfill("first")

	op = s.Dispatch(context.Background())
	op.Reject(errors.New("timeout"))

	if s.Err() != "timeout" {
		t.Errorf("expected error %q, got %q", "timeout", s.Err())
	}
	got, ok := s.Data()
	if !ok || got != "first" {
		t.Errorf("rejection must not touch data, got %q (ok=%v)", got, ok)
	}
	if s.Phase() != PhaseFailed {
		t.Errorf("expected failed, got %v", s.Phase())
	}
}

func TestSlice_DispatchClearsPriorError(t *testing.T) {
	s := NewSlice[int]("test")

	op := s.Dispatch(context.Background())
	op.Reject(errors.New("boom"))
	if s.Err() == "" {
		t.Fatal("error should be set")
	}

	s.Dispatch(context.Background())
	if s.Err() != "" {
		t.Error("dispatch should clear the prior error")
	}
}

func TestSlice_IdempotentDoubleDispatch(t *testing.T) {
	s := NewSlice[int]("test")

	a := s.Dispatch(context.Background())
	b := s.Dispatch(context.Background())
	a.Fulfill(7)
	b.Fulfill(7)

	got, ok := s.Data()
	if !ok || got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if s.Pending() {
		t.Error("no operations should remain in flight")
	}
	if s.Err() != "" {
		t.Errorf("unexpected error %q", s.Err())
	}

	// Same terminal state as a single dispatch/resolve.
	single := NewSlice[int]("single")
	op := single.Dispatch(context.Background())
	op.Fulfill(7)
	if g, _ := single.Data(); g != got || single.Phase() != s.Phase() {
		t.Error("double dispatch should converge to the single-dispatch state")
	}
}

// Reproduces the legacy behavior on purpose: dispatch A then B, resolve B
// first, then A. The slice ends up with A's payload because A settled last.
// Changing this default is a deliberate, visible change; the corrected
// behavior lives behind WithSequenceGuard.
func TestSlice_LastSettledWinsLegacy(t *testing.T) {
	s := NewSlice[string]("test")

	a := s.Dispatch(context.Background())
	b := s.Dispatch(context.Background())

	b.Fulfill("from B")
	if got, _ := s.Data(); got != "from B" {
		t.Fatalf("expected B's payload first, got %q", got)
	}

	a.Fulfill("from A")
	got, _ := s.Data()
	if got != "from A" {
		t.Errorf("last-settled-wins: expected A's payload to overwrite, got %q", got)
	}
}

func TestSlice_SequenceGuardDiscardsStaleResolution(t *testing.T) {
	s := NewSlice[string]("test", WithSequenceGuard())

	a := s.Dispatch(context.Background())
	b := s.Dispatch(context.Background())

	b.Fulfill("from B")
	a.Fulfill("from A")

	got, _ := s.Data()
	if got != "from B" {
		t.Errorf("guarded slice must keep the newest dispatch's outcome, got %q", got)
	}
	if s.Pending() {
		t.Error("discarded resolution must still release the in-flight count")
	}
}

func TestSlice_SequenceGuardDiscardsStaleRejection(t *testing.T) {
	s := NewSlice[string]("test", WithSequenceGuard())

	a := s.Dispatch(context.Background())
	b := s.Dispatch(context.Background())

	b.Fulfill("fresh")
	a.Reject(errors.New("stale failure"))

	if s.Err() != "" {
		t.Errorf("stale rejection must be discarded, got error %q", s.Err())
	}
	if got, _ := s.Data(); got != "fresh" {
		t.Errorf("expected %q, got %q", "fresh", got)
	}
}

func TestSlice_SequenceGuardDiscardsCancelledContext(t *testing.T) {
	s := NewSlice[int]("test", WithSequenceGuard())

	ctx, cancel := context.WithCancel(context.Background())
	op := s.Dispatch(ctx)
	cancel()
	op.Fulfill(99)

	if _, ok := s.Data(); ok {
		t.Error("resolution after consumer teardown must not be applied")
	}
}

func TestSlice_LegacyAppliesLateResolutionAfterCancel(t *testing.T) {
	s := NewSlice[int]("test")

	ctx, cancel := context.WithCancel(context.Background())
	op := s.Dispatch(ctx)
	cancel()
	op.Fulfill(99)

	// The legacy mode has no cancellation: the late resolution still lands.
	if got, ok := s.Data(); !ok || got != 99 {
		t.Errorf("legacy slice should apply late resolutions, got %d (ok=%v)", got, ok)
	}
}

func TestSlice_TerminalIsExactlyOnce(t *testing.T) {
	s := NewSlice[int]("test")

	op := s.Dispatch(context.Background())
	op.Fulfill(1)
	op.Fulfill(2)
	op.Reject(errors.New("late"))

	if got, _ := s.Data(); got != 1 {
		t.Errorf("only the first terminal transition may apply, got %d", got)
	}
	if s.Err() != "" {
		t.Errorf("unexpected error %q", s.Err())
	}
}

func TestSlice_ClearErrorIsExplicit(t *testing.T) {
	s := NewSlice[int]("test")

	op := s.Dispatch(context.Background())
	op.Reject(errors.New("boom"))

	if s.Err() != "boom" {
		t.Fatalf("expected error, got %q", s.Err())
	}
	// Reads never clear the error.
	s.Data()
	s.Phase()
	if s.Err() != "boom" {
		t.Error("reads must not clear the error")
	}
	s.ClearError()
	if s.Err() != "" {
		t.Error("ClearError should reset the error")
	}
}

func TestSlice_RunSettlesFromFunc(t *testing.T) {
	s := NewSlice[int]("test")

	op := s.Run(context.Background(), func(context.Context) (int, error) {
		return 5, nil
	})
	<-op.Settled()

	if got, ok := s.Data(); !ok || got != 5 {
		t.Errorf("expected 5, got %d (ok=%v)", got, ok)
	}

	op = s.Run(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("fetch failed")
	})
	<-op.Settled()

	if s.Err() != "fetch failed" {
		t.Errorf("expected error %q, got %q", "fetch failed", s.Err())
	}
	if got, _ := s.Data(); got != 5 {
		t.Errorf("failed run must not touch data, got %d", got)
	}
}
