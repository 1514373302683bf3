package events

import (
	"context"
	"fmt"

	"github.com/tripora/backend/pkg/logger"
)

// Handler reacts to a single dispatched event. Handler failures are
// isolated: events are post-commit notifications, never part of the
// transaction that produced them.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Dispatcher fans events out to registered handlers. The registry is a
// static mapping from event name to an ordered handler list, built once at
// startup; registration is not safe for concurrent use with Dispatch.
type Dispatcher struct {
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Register appends a handler for the given event name. Handlers for the
// same name run in registration order.
func (d *Dispatcher) Register(eventName string, h Handler) {
	d.handlers[eventName] = append(d.handlers[eventName], h)
}

// RegisterFunc is a convenience wrapper around Register.
func (d *Dispatcher) RegisterFunc(eventName string, f func(ctx context.Context, e Event) error) {
	d.Register(eventName, HandlerFunc(f))
}

// Dispatch delivers each event to its handlers sequentially. A failing or
// panicking handler is logged and does not stop delivery to subsequent
// handlers or events. Zero registered handlers is not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []Event) {
	for _, e := range batch {
		hs := d.handlers[e.EventName()]
		if len(hs) == 0 {
			logger.Info().
				Str("event", e.EventName()).
				Msg("no handler registered for event")
			continue
		}
		for i, h := range hs {
			if err := d.invoke(ctx, h, e); err != nil {
				logger.Error().
					Err(err).
					Str("event", e.EventName()).
					Int("handler", i).
					Msg("event handler failed")
			}
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}
