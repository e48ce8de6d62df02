package messaging

import (
	"context"
	"testing"
	"time"

	eventsv1 "maestro/contracts/gen/events/v1"
)

func TestInProcessBusDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcessBus(nil)

	received := make(chan string, 3)
	if err := bus.Subscribe(ctx, "proposal.approved", "test-cg", func(_ context.Context, event eventsv1.Envelope) error {
		received <- event.EventID
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	for _, id := range []string{"e1", "e2", "e3"} {
		if err := bus.Publish(ctx, "proposal.approved", eventsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := bus.Publish(ctx, "proposal.rejected", eventsv1.Envelope{EventID: "other"}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
	for _, want := range []string{"e1", "e2", "e3"} {
		select {
		case got := <-received:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestInProcessBusUnsubscribesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewInProcessBus(nil)
	if err := bus.Subscribe(ctx, "t", "cg", func(context.Context, eventsv1.Envelope) error { return nil }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		remaining := len(bus.subscribers["t"])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber was not removed after cancel")
}
