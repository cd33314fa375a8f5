// Package events delivers scheduler notifications to an arbitrary number of
// subscribers without the scheduler depending on their identity or behavior.
package events

import (
	"sync"
	"time"

	"focusd/internal/session"
	"github.com/rs/zerolog"
)

// subscriberBuffer bounds how many undelivered events a slow subscriber may
// hold before further events are dropped for it.
const subscriberBuffer = 64

// Tick reports remaining time for the running session, once per clock tick.
type Tick struct {
	SessionID string
	Remaining time.Duration
}

// Ended reports a terminated session. Next is the proposed kind of the next
// session. Err carries a persistence failure from the finalize path, nil
// otherwise.
type Ended struct {
	Record session.Record
	Next   session.Kind
	Err    error
}

// TickHandler receives Tick events.
type TickHandler func(Tick)

// EndedHandler receives Ended events.
type EndedHandler func(Ended)

type envelope struct {
	tick  *Tick
	ended *Ended
}

type subscriber struct {
	ch      chan envelope
	onTick  TickHandler
	onEnded EndedHandler
}

// Subscription identifies a registered subscriber for Unsubscribe.
type Subscription struct {
	id uint64
}

// Bus is a fire-and-forget fan-out of Tick and Ended events. Each subscriber
// drains a private buffered channel on its own goroutine, so a slow or
// panicking subscriber cannot block the publisher or starve its peers.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
	logger zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[uint64]*subscriber),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers the given handlers. Either handler may be nil when the
// subscriber only cares about one event type. The returned Subscription is
// passed to Unsubscribe to release the registration.
func (b *Bus) Subscribe(onTick TickHandler, onEnded EndedHandler) Subscription {
	sub := &subscriber{
		ch:      make(chan envelope, subscriberBuffer),
		onTick:  onTick,
		onEnded: onEnded,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Subscription{}
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = sub
	b.mu.Unlock()

	go b.drain(id, sub)
	return Subscription{id: id}
}

// Unsubscribe releases a subscription. Unknown or already released
// subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	sub, ok := b.subs[s.id]
	if ok {
		delete(b.subs, s.id)
	}
	b.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// Close releases all subscriptions. Publishing after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		close(sub.ch)
	}
}

// PublishTick fans out a tick event. It never blocks: events for subscribers
// with a full buffer are dropped.
func (b *Bus) PublishTick(t Tick) {
	b.publish(envelope{tick: &t})
}

// PublishEnded fans out a session-ended event.
func (b *Bus) PublishEnded(e Ended) {
	b.publish(envelope{ended: &e})
}

func (b *Bus) publish(env envelope) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- env:
		default:
			b.logger.Debug().Msg("Subscriber buffer full, dropping event")
		}
	}
}

// drain invokes the subscriber's handlers for each delivered event. Panics
// are contained here so they never propagate back into the scheduler or
// prevent delivery to other subscribers.
func (b *Bus) drain(id uint64, sub *subscriber) {
	for env := range sub.ch {
		b.deliver(id, sub, env)
	}
}

func (b *Bus) deliver(id uint64, sub *subscriber, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Uint64("subscriber", id).
				Interface("panic", r).
				Msg("Subscriber handler panicked")
		}
	}()

	switch {
	case env.tick != nil && sub.onTick != nil:
		sub.onTick(*env.tick)
	case env.ended != nil && sub.onEnded != nil:
		sub.onEnded(*env.ended)
	}
}
