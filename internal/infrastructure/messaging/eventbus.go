// Package messaging implements the in-memory event bus connecting the engine
// to the UI collaborator. Handlers run synchronously in publish order so the
// UI sees badge and level notifications in the order they were earned.
package messaging

import (
	"sync"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// Bus is a synchronous in-memory event bus. Suitable for the single-process,
// single-session design of the dashboard.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	log         *logger.Logger
}

// NewBus creates an event bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Default()
	}
	return &Bus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		log:      log.With(logger.Component("eventbus")),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t shared.EventType, h shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, h)
}

// Publish delivers the event to all matching handlers, recovering from
// handler panics so a broken subscriber cannot take down a mutation that
// already persisted.
func (b *Bus) Publish(ev shared.Event) {
	b.mu.RLock()
	specific := make([]shared.EventHandler, len(b.handlers[ev.EventType()]))
	copy(specific, b.handlers[ev.EventType()])
	all := make([]shared.EventHandler, len(b.allHandlers))
	copy(all, b.allHandlers)
	b.mu.RUnlock()

	for _, h := range specific {
		b.deliver(h, ev)
	}
	for _, h := range all {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h shared.EventHandler, ev shared.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				logger.String("event_type", string(ev.EventType())),
				logger.Any("panic", r))
		}
	}()
	h(ev)
}
