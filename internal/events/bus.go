// Package events provides the change notifications editing sessions listen to.
//
// Delivery is synchronous: Publish runs handlers on the caller's goroutine in
// publish order. Events published while handlers run (from a handler or from
// another goroutine) are queued and delivered by the goroutine already
// draining, after the current event.
package events

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Topic distinguishes notification kinds.
type Topic int

const (
	// OriginChanged: an asset that variants may derive from was modified or deleted.
	OriginChanged Topic = iota + 1

	// PatchChanged: a variant's persisted artifact was modified.
	PatchChanged
)

// String returns the topic name.
func (t Topic) String() string {
	switch t {
	case OriginChanged:
		return "origin-changed"
	case PatchChanged:
		return "patch-changed"
	}
	return "unknown"
}

// Event is one notification.
type Event struct {
	Topic Topic

	// ID is the identifier of the asset that changed.
	ID string

	// Path is the file the change was observed on, if any.
	Path string

	// Deleted is set when the asset no longer exists.
	Deleted bool

	// Source identifies the publisher so that it can ignore its own events.
	Source string
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	handler Handler
	active  atomic.Bool
}

// Bus fans events out to subscribers of their topic.
type Bus struct {
	mu       sync.Mutex
	subs     map[Topic][]*subscription
	queue    []Event
	draining bool
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]*subscription)}
}

// Subscribe registers h for topic. The returned function removes it; calling
// it more than once is harmless. A handler removed during delivery receives
// no further events, including the rest of the current one's fan-out.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	s := &subscription{handler: h}
	s.active.Store(true)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	return func() {
		if !s.active.Swap(false) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[topic] = slices.DeleteFunc(b.subs[topic], func(x *subscription) bool { return x == s })
	}
}

// Publish delivers e to every current subscriber of e.Topic.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue[0] = Event{}
		if len(b.queue) == 1 {
			b.queue = b.queue[:0]
		} else {
			b.queue = b.queue[1:]
		}
		subs := slices.Clone(b.subs[next.Topic])
		b.mu.Unlock()

		for _, s := range subs {
			if s.active.Load() {
				s.handler(next)
			}
		}
		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
