package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher_FanOutInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		order = append(order, "first")
		return nil
	})
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		order = append(order, "second")
		return nil
	})

	d.Dispatch(context.Background(), []Event{testEvent{name: "thing.happened", at: time.Now()}})

	if len(order) != 2 {
		t.Fatalf("expected 2 handler invocations, got %d", len(order))
	}
	if order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran out of registration order: %v", order)
	}
}

func TestDispatcher_HandlerFailureDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher()

	var reached bool
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	d.Dispatch(context.Background(), []Event{testEvent{name: "thing.happened"}})

	if !reached {
		t.Error("handler after a failing handler was not invoked")
	}
}

func TestDispatcher_HandlerPanicIsIsolated(t *testing.T) {
	d := NewDispatcher()

	var reached bool
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		panic("handler exploded")
	})
	d.RegisterFunc("thing.happened", func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	d.Dispatch(context.Background(), []Event{testEvent{name: "thing.happened"}})

	if !reached {
		t.Error("panic in one handler stopped dispatch of the next")
	}
}

func TestDispatcher_ZeroHandlersIsNotAnError(t *testing.T) {
	d := NewDispatcher()

	// Must not panic or fail
	d.Dispatch(context.Background(), []Event{testEvent{name: "nobody.cares"}})
}

func TestDispatcher_MultipleEventsAllDelivered(t *testing.T) {
	d := NewDispatcher()

	var got []string
	d.RegisterFunc("a", func(ctx context.Context, e Event) error {
		got = append(got, "a")
		return nil
	})
	d.RegisterFunc("b", func(ctx context.Context, e Event) error {
		got = append(got, "b")
		return nil
	})

	d.Dispatch(context.Background(), []Event{
		testEvent{name: "a"},
		testEvent{name: "b"},
		testEvent{name: "a"},
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" || got[2] != "a" {
		t.Errorf("batch order not preserved: %v", got)
	}
}

func TestDispatcher_HandlersOnlyReceiveTheirType(t *testing.T) {
	d := NewDispatcher()

	var count int
	d.RegisterFunc("a", func(ctx context.Context, e Event) error {
		count++
		return nil
	})

	d.Dispatch(context.Background(), []Event{
		testEvent{name: "a"},
		testEvent{name: "b"},
	})

	if count != 1 {
		t.Errorf("handler for %q invoked %d times, expected 1", "a", count)
	}
}
