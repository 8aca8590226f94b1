package state

import (
	"context"
	"errors"
	"testing"
)

func TestCollection_FetchReplacesItems(t *testing.T) {
	c := NewCollection[string]("test")

	op := c.DispatchFetch(context.Background())
	op.Fulfill([]string{"a", "b"})

	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}

	op = c.DispatchFetch(context.Background())
	op.Fulfill([]string{"c"})

	items := c.Items()
	if len(items) != 1 || items[0] != "c" {
		t.Errorf("fetch must replace wholesale, got %v", items)
	}
}

func TestCollection_AppendMergesOneElement(t *testing.T) {
	c := NewCollection[string]("test")

	fetch := c.DispatchFetch(context.Background())
	fetch.Fulfill([]string{"a"})

	add := c.DispatchAppend(context.Background())
	add.Fulfill("b")

	items := c.Items()
	if len(items) != 2 || items[1] != "b" {
		t.Errorf("append should merge, got %v", items)
	}
}

func TestCollection_RejectLeavesItems(t *testing.T) {
	c := NewCollection[int]("test")

	op := c.DispatchFetch(context.Background())
	op.Fulfill([]int{1, 2, 3})

	op = c.DispatchFetch(context.Background())
	op.Reject(errors.New("server error"))

	if c.Err() != "server error" {
		t.Errorf("expected error, got %q", c.Err())
	}
	if c.Len() != 3 {
		t.Errorf("rejection must not touch items, got %d", c.Len())
	}
}

func TestCollection_ClearResetsButInFlightStillApplies(t *testing.T) {
	c := NewCollection[int]("test")

	seed := c.DispatchFetch(context.Background())
	seed.Fulfill([]int{1, 2})

	inflight := c.DispatchFetch(context.Background())

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("clear should empty items, got %d", c.Len())
	}
	if c.Err() != "" {
		t.Fatal("clear should empty the error")
	}

	// Clear is a no-op on the operation already in flight.
	inflight.Fulfill([]int{9})
	items := c.Items()
	if len(items) != 1 || items[0] != 9 {
		t.Errorf("in-flight resolution must still apply after clear, got %v", items)
	}
}

func TestCollection_LastSettledWins(t *testing.T) {
	c := NewCollection[int]("test")

	a := c.DispatchFetch(context.Background())
	b := c.DispatchFetch(context.Background())

	b.Fulfill([]int{2})
	a.Fulfill([]int{1})

	items := c.Items()
	if len(items) != 1 || items[0] != 1 {
		t.Errorf("legacy ordering: A settled last and must win, got %v", items)
	}
}

func TestCollection_SequenceGuard(t *testing.T) {
	c := NewCollection[int]("test", WithSequenceGuard())

	a := c.DispatchFetch(context.Background())
	b := c.DispatchFetch(context.Background())

	b.Fulfill([]int{2})
	a.Fulfill([]int{1})

	items := c.Items()
	if len(items) != 1 || items[0] != 2 {
		t.Errorf("guarded collection must keep the newest dispatch, got %v", items)
	}
}

func TestCollection_ItemsReturnsCopy(t *testing.T) {
	c := NewCollection[int]("test")

	op := c.DispatchFetch(context.Background())
	op.Fulfill([]int{1, 2})

	items := c.Items()
	items[0] = 100

	if c.Items()[0] != 1 {
		t.Error("Items must return a copy, internal state was mutated")
	}
}
