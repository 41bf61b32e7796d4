// Package event dispatches domain events between bounded contexts inside
// the process.
package event

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Bus delivers events synchronously, in subscription order, on the caller's
// goroutine. Handlers therefore run inside the publisher's transaction and
// the first handler error aborts the publish.
type Bus struct {
	mu     sync.RWMutex
	routes map[string][]shared.EventHandler
	any    []shared.EventHandler
}

// NewBus creates a new Bus
func NewBus() *Bus {
	return &Bus{routes: make(map[string][]shared.EventHandler)}
}

// Publish delivers every event to its handlers
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		for _, h := range b.handlersFor(ev.EventType()) {
			if err := dispatch(ctx, h, ev); err != nil {
				logger.L(ctx).Warn("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.Error(err))
				return err
			}
		}
	}
	return nil
}

// Subscribe registers handler. Without explicit types the handler's own
// EventTypes are used; a handler declaring none receives every event.
func (b *Bus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.any = append(b.any, handler)
		return
	}
	for _, t := range eventTypes {
		b.routes[t] = append(b.routes[t], handler)
	}
}

// handlersFor copies the route so Subscribe may run during a publish
func (b *Bus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append(slices.Clone(b.routes[eventType]), b.any...)
}

func dispatch(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", ev.EventType(), r)
		}
	}()
	return h.Handle(ctx, ev)
}

// HandlerFunc adapts a function to shared.EventHandler
type HandlerFunc struct {
	Types []string
	Fn    func(ctx context.Context, ev shared.DomainEvent) error
}

func (h HandlerFunc) Handle(ctx context.Context, ev shared.DomainEvent) error { return h.Fn(ctx, ev) }
func (h HandlerFunc) EventTypes() []string                                    { return h.Types }

// On builds a HandlerFunc for events of type E
func On[E shared.DomainEvent](eventType string, fn func(ctx context.Context, ev E) error) HandlerFunc {
	return HandlerFunc{
		Types: []string{eventType},
		Fn: func(ctx context.Context, ev shared.DomainEvent) error {
			typed, ok := ev.(E)
			if !ok {
				return fmt.Errorf("event %s has unexpected type %T", eventType, ev)
			}
			return fn(ctx, typed)
		},
	}
}

var _ shared.EventBus = (*Bus)(nil)
