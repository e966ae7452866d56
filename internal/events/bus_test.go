package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus()
	var origin, patch []string
	bus.Subscribe(OriginChanged, func(e Event) { origin = append(origin, e.ID) })
	bus.Subscribe(PatchChanged, func(e Event) { patch = append(patch, e.ID) })

	bus.Publish(Event{Topic: OriginChanged, ID: "a"})
	bus.Publish(Event{Topic: PatchChanged, ID: "b"})
	bus.Publish(Event{Topic: OriginChanged, ID: "c"})

	assert.Equal(t, []string{"a", "c"}, origin)
	assert.Equal(t, []string{"b"}, patch)
}

func TestPublishDuringDeliveryIsQueuedInOrder(t *testing.T) {
	bus := NewBus()
	var seen []string
	bus.Subscribe(OriginChanged, func(e Event) {
		seen = append(seen, "first:"+e.ID)
		if e.ID == "1" {
			bus.Publish(Event{Topic: PatchChanged, ID: "2"})
		}
	})
	bus.Subscribe(OriginChanged, func(e Event) { seen = append(seen, "second:"+e.ID) })
	bus.Subscribe(PatchChanged, func(e Event) { seen = append(seen, "patch:"+e.ID) })

	bus.Publish(Event{Topic: OriginChanged, ID: "1"})

	// The nested event waits until every handler of the first has run.
	assert.Equal(t, []string{"first:1", "second:1", "patch:2"}, seen)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(PatchChanged, func(Event) { calls++ })
	assert.Equal(t, 1, bus.Subscribers(PatchChanged))

	bus.Publish(Event{Topic: PatchChanged})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Topic: PatchChanged})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Subscribers(PatchChanged))
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()
	var second func()
	calls := 0
	bus.Subscribe(OriginChanged, func(Event) { second() })
	second = bus.Subscribe(OriginChanged, func(Event) { calls++ })

	bus.Publish(Event{Topic: OriginChanged})
	assert.Zero(t, calls)
}

func TestTopicString(t *testing.T) {
	assert.Equal(t, "origin-changed", OriginChanged.String())
	assert.Equal(t, "patch-changed", PatchChanged.String())
	assert.Equal(t, "unknown", Topic(0).String())
}
