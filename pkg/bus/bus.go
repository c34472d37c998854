// Package bus decouples event producers from consumers: the frame
// handlers publish classified domain events, and the serve loop drains
// them on its own goroutine.
package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/tinyland-inc/ntbridge/pkg/event"
)

// ErrBusClosed is returned when publishing to a closed EventBus.
var ErrBusClosed = errors.New("event bus closed")

type EventBus struct {
	events chan event.Event
	done   chan struct{}
	closed atomic.Bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		events: make(chan event.Event, 100),
		done:   make(chan struct{}),
	}
}

func (eb *EventBus) Publish(ctx context.Context, ev event.Event) error {
	if eb.closed.Load() {
		return ErrBusClosed
	}
	select {
	case eb.events <- ev:
		return nil
	case <-eb.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks for the next event. The second return value is false
// once the bus or ctx is done.
func (eb *EventBus) Consume(ctx context.Context) (event.Event, bool) {
	select {
	case ev, ok := <-eb.events:
		return ev, ok
	case <-eb.done:
		return event.Event{}, false
	case <-ctx.Done():
		return event.Event{}, false
	}
}

func (eb *EventBus) Close() {
	if eb.closed.CompareAndSwap(false, true) {
		close(eb.done)
	}
}
