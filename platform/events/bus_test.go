package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var calls atomic.Int32
	done := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		calls.Add(1)
		return nil
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		calls.Add(1)
		close(done)
		return nil
	}))
	bus.Subscribe("other.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		t.Error("handler for a different event was invoked")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers did not run")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestPublishSurvivesCancelledRequestContext(t *testing.T) {
	bus := NewInMemoryBus(nil)

	done := make(chan error, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		done <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{NewBaseEvent(), "thing.happened"})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("handler context = %v, want uncancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestPublishSyncStopsOnFirstError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	boom := errors.New("boom")

	var after bool
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		return boom
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, ev Event) error {
		after = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "thing.happened"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if after {
		t.Fatal("handler after the failing one still ran")
	}
}

func TestPublishWithoutSubscribersIsANoOp(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "nobody.cares"})
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "nobody.cares"}); err != nil {
		t.Fatalf("err = %v", err)
	}
}
