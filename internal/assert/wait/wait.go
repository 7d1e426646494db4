package wait

import (
	"testing"
	"time"

	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/pkg/api"
)

type Wait struct {
	t        *testing.T
	consumer topic.Consumer[*api.ExecutionEvent]
	timeout  time.Duration
}

const DefaultTimeout = time.Second * 5

func On(t *testing.T, consumer topic.Consumer[*api.ExecutionEvent]) *Wait {
	return &Wait{
		t:        t,
		consumer: consumer,
		timeout:  DefaultTimeout,
	}
}

func (w *Wait) WithTimeout(timeout time.Duration) *Wait {
	res := *w
	res.timeout = timeout
	return &res
}

// ForEvents waits for matching events from the consumer, returning them in
// the order they arrived
func (w *Wait) ForEvents(
	count int, filter events.EventFilter,
) []*api.ExecutionEvent {
	w.t.Helper()

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	var res []*api.ExecutionEvent
	for len(res) < count {
		select {
		case ev, ok := <-w.consumer.Receive():
			if !ok {
				w.t.Fatalf(
					"event consumer closed before receiving %d events", count,
				)
			}
			if ev == nil || !filter(ev) {
				continue
			}
			res = append(res, ev)
		case <-deadline.C:
			w.t.Fatalf("timeout waiting for %d events", count)
		}
	}
	return res
}

// ForEvent waits for a single matching event
func (w *Wait) ForEvent(filter events.EventFilter) *api.ExecutionEvent {
	w.t.Helper()
	return w.ForEvents(1, filter)[0]
}

// Execution matches events raised by one execution
func Execution(id api.ExecutionID) events.EventFilter {
	return func(ev *api.ExecutionEvent) bool {
		return ev.ExecutionID == id
	}
}

// Terminal matches the finished and failed events of any execution
func Terminal() events.EventFilter {
	return events.FilterEvents(
		api.EventTypeExecutionFinished,
		api.EventTypeExecutionFailed,
	)
}

// Finished matches finished events of one plan
func Finished(id api.PlanID) events.EventFilter {
	return events.AndFilters(
		events.FilterEvents(api.EventTypeExecutionFinished),
		events.FilterPlan(id),
	)
}

// Failed matches failed events of one plan
func Failed(id api.PlanID) events.EventFilter {
	return events.AndFilters(
		events.FilterEvents(api.EventTypeExecutionFailed),
		events.FilterPlan(id),
	)
}
