// Package bus is the in-process domain event bus. Dispatch is synchronous
// and runs handlers in registration order; a failing handler is logged and
// isolated so it can never abort delivery to the handlers after it.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"realtime-ws/internal/domain"
)

// Handler processes one dispatched event. The concrete event type is fixed
// by the kind the handler subscribed to.
type Handler func(ctx context.Context, evt domain.Event) error

type subscription struct {
	handler Handler
}

// Bus routes domain events to subscribed handlers. Safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind][]*subscription
	logger   *slog.Logger
}

func New() *Bus {
	return &Bus{
		handlers: make(map[domain.EventKind][]*subscription),
		logger:   slog.Default().With("component", "bus"),
	}
}

// Subscribe registers a handler for one event kind and returns a function
// that removes it. A handler registered while a dispatch is in flight is not
// invoked for that dispatch.
func (b *Bus) Subscribe(kind domain.EventKind, h Handler) (unsubscribe func()) {
	sub := &subscription{handler: h}

	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[kind]
		for i, s := range subs {
			if s == sub {
				b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit dispatches evt to every handler currently subscribed to its kind, in
// registration order. The handler list is snapshotted before dispatch begins.
func (b *Bus) Emit(ctx context.Context, evt domain.Event) {
	b.mu.RLock()
	subs := b.handlers[evt.Kind()]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		if err := b.dispatch(ctx, sub.handler, evt); err != nil {
			b.logger.Error("event handler failed",
				"kind", string(evt.Kind()),
				"error", err)
		}
	}
}

// dispatch runs a single handler, converting a panic into an error so one
// misbehaving listener cannot take down the emitting goroutine.
func (b *Bus) dispatch(ctx context.Context, h Handler, evt domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, evt)
}
