// Package events distributes plan execution lifecycle events to
// interested subscribers, such as the websocket event stream
package events

import (
	"sync"
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/bizunit/pkg/api"
)

type (
	// Publisher accepts execution events
	Publisher interface {
		Publish(*api.ExecutionEvent)
	}

	// Hub fans execution events out to every consumer. It is the only
	// structure shared across concurrent executions
	Hub struct {
		topic   topic.Topic[*api.ExecutionEvent]
		prod    topic.Producer[*api.ExecutionEvent]
		mu      sync.Mutex
		closed  bool
		nowFunc func() time.Time
	}

	// EventFilter selects the events a consumer is interested in
	EventFilter func(*api.ExecutionEvent) bool
)

var _ Publisher = (*Hub)(nil)

// NewHub creates an event hub backed by a caravan topic
func NewHub() *Hub {
	t := caravan.NewTopic[*api.ExecutionEvent]()
	return &Hub{
		topic:   t,
		prod:    t.NewProducer(),
		nowFunc: time.Now,
	}
}

// Publish stamps and sends an event. Publishing to a closed hub is a no-op
func (h *Hub) Publish(ev *api.ExecutionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = h.nowFunc().UnixMilli()
	}
	h.prod.Send() <- ev
}

// NewConsumer returns a consumer that receives subsequently published
// events. The caller must close it
func (h *Hub) NewConsumer() topic.Consumer[*api.ExecutionEvent] {
	return h.topic.NewConsumer()
}

// Close stops accepting events
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.prod.Close()
}

// FilterEvents matches any of the given event types
func FilterEvents(eventTypes ...api.EventType) EventFilter {
	lookup := map[api.EventType]bool{}
	for _, et := range eventTypes {
		lookup[et] = true
	}
	return func(ev *api.ExecutionEvent) bool {
		return lookup[ev.Type]
	}
}

// FilterPlan matches events raised by executions of one plan
func FilterPlan(id api.PlanID) EventFilter {
	return func(ev *api.ExecutionEvent) bool {
		return ev.PlanID == id
	}
}

func AndFilters(filters ...EventFilter) EventFilter {
	return func(ev *api.ExecutionEvent) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}

func OrFilters(filters ...EventFilter) EventFilter {
	return func(ev *api.ExecutionEvent) bool {
		for _, filter := range filters {
			if filter(ev) {
				return true
			}
		}
		return false
	}
}

// Discard is a Publisher that drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(*api.ExecutionEvent) {}
