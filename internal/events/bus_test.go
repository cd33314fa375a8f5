package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"focusd/internal/session"
)

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		panic("unreachable")
	}
}

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	first := make(chan Tick, 1)
	second := make(chan Tick, 1)
	bus.Subscribe(func(evt Tick) { first <- evt }, nil)
	bus.Subscribe(func(evt Tick) { second <- evt }, nil)

	bus.PublishTick(Tick{SessionID: "s1", Remaining: 5 * time.Second})

	for _, ch := range []chan Tick{first, second} {
		evt := waitFor(t, ch)
		if evt.SessionID != "s1" {
			t.Fatalf("expected session s1, got %s", evt.SessionID)
		}
		if evt.Remaining != 5*time.Second {
			t.Fatalf("expected 5s remaining, got %s", evt.Remaining)
		}
	}
}

func TestBusDeliversEnded(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	ended := make(chan Ended, 1)
	bus.Subscribe(nil, func(evt Ended) { ended <- evt })

	bus.PublishEnded(Ended{
		Record: session.Record{ID: "s1", Kind: session.KindFocus, Completed: true},
		Next:   session.KindShortBreak,
	})

	evt := waitFor(t, ended)
	if !evt.Record.Completed {
		t.Fatal("expected completed record")
	}
	if evt.Next != session.KindShortBreak {
		t.Fatalf("expected short_break next, got %s", evt.Next)
	}
}

func TestBusPanickingSubscriberDoesNotStarvePeers(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	healthy := make(chan Tick, 4)
	bus.Subscribe(func(Tick) { panic("subscriber bug") }, nil)
	bus.Subscribe(func(evt Tick) { healthy <- evt }, nil)

	bus.PublishTick(Tick{SessionID: "s1", Remaining: 3 * time.Second})
	bus.PublishTick(Tick{SessionID: "s1", Remaining: 2 * time.Second})

	waitFor(t, healthy)
	evt := waitFor(t, healthy)
	if evt.Remaining != 2*time.Second {
		t.Fatalf("expected 2s remaining, got %s", evt.Remaining)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	received := make(chan Tick, 4)
	sub := bus.Subscribe(func(evt Tick) { received <- evt }, nil)

	bus.PublishTick(Tick{SessionID: "s1", Remaining: time.Second})
	waitFor(t, received)

	bus.Unsubscribe(sub)
	bus.PublishTick(Tick{SessionID: "s1", Remaining: 0})

	select {
	case evt := <-received:
		t.Fatalf("received event after unsubscribe: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	received := make(chan Tick, 1)
	bus.Subscribe(func(evt Tick) { received <- evt }, nil)

	bus.Close()
	bus.PublishTick(Tick{SessionID: "s1", Remaining: time.Second})

	select {
	case evt := <-received:
		t.Fatalf("received event after close: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	block := make(chan struct{})
	bus.Subscribe(func(Tick) { <-block }, nil)

	// The first event occupies the handler, the rest fill the buffer. The
	// publisher must never block even far past the buffer size.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.PublishTick(Tick{SessionID: "s1", Remaining: time.Duration(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	close(block)
}
