// Package bus is the in-process change notifier. Each subscriber owns a
// bounded event queue fed by Publish, so a slow consumer never stalls the
// publishing side.
package bus

import (
	"sync"

	"github.com/priorityhub/inbox-platform/internal/model"
	"github.com/priorityhub/inbox-platform/pkg/metrics"
)

// DefaultQueueSize is the per-subscriber buffer used when the caller
// passes a non-positive size.
const DefaultQueueSize = 64

// Bus fans out events to all current subscribers in subscription order.
// There is no buffering beyond each subscriber's queue and no replay: a
// subscriber only sees events published while it is subscribed.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	order  []uint64
	nextID uint64
	closed bool
}

// Subscription is one subscriber's handle on the bus.
type Subscription struct {
	id  uint64
	ch  chan model.Event
	bus *Bus
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a new subscriber with a bounded queue.
func (b *Bus) Subscribe(queueSize int) *Subscription {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{id: b.nextID, ch: make(chan model.Event, queueSize), bus: b}
	b.nextID++

	if b.closed {
		// Hand back an already-closed subscription rather than nil so
		// callers have a single shutdown path.
		close(sub.ch)
		return sub
	}

	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	return sub
}

// Publish delivers the event to every subscriber's queue without blocking.
// A subscriber whose queue is full is dropped, which is the queue-based
// equivalent of a failed listener callback: the failure never reaches the
// publisher or the other subscribers.
func (b *Bus) Publish(event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	metrics.BusEventsTotal.WithLabelValues(string(event.Type)).Inc()

	var dropped []uint64
	for _, id := range b.order {
		sub, ok := b.subs[id]
		if !ok {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			dropped = append(dropped, id)
		}
	}

	for _, id := range dropped {
		b.removeLocked(id)
		metrics.BusSubscribersDropped.Inc()
	}
}

// SubscriberCount reports the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops every subscriber and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id := range b.subs {
		b.removeLocked(id)
	}
}

// removeLocked unregisters and closes one subscription. Caller holds b.mu.
func (b *Bus) removeLocked(id uint64) {
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	close(sub.ch)
}

// Events returns the subscriber's queue. The channel is closed when the
// subscription ends, whether by Close, bus shutdown, or a full queue.
func (s *Subscription) Events() <-chan model.Event {
	return s.ch
}

// Close unsubscribes. Safe to call more than once and concurrently with
// Publish.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.bus.removeLocked(s.id)
}
