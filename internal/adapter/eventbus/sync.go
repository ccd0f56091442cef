// Package eventbus delivers domain events between the services and the presenter.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
)

// SyncEventBus calls handlers on the publishing goroutine, in subscription order.
// Type-specific handlers run before wildcard handlers. It is safe for concurrent use;
// a slow handler delays the publisher, so handlers that touch the UI hop to the UI
// thread themselves.
type SyncEventBus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	wildcard []subscription
	nextID   uint64
	closed   bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
	filter  ports.EventFilter
}

func (s subscription) accepts(event domain.Event) bool {
	return s.filter == nil || s.filter(event)
}

// NewSyncEventBus creates an empty bus. A nil logger discards handler panics silently.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger != nil {
		logger = logger.With(slog.String("component", "eventbus"))
	}
	return &SyncEventBus{
		logger: logger,
		byType: make(map[domain.EventType][]subscription),
	}
}

// Publish delivers event to its subscribers. Publishing on a closed bus or a nil
// event does nothing. A panicking handler is logged and the remaining handlers
// still run.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	targets := make([]subscription, 0, len(bus.byType[event.Type()])+len(bus.wildcard))
	targets = append(targets, bus.byType[event.Type()]...)
	targets = append(targets, bus.wildcard...)
	bus.mu.RUnlock()

	for _, sub := range targets {
		if sub.accepts(event) {
			bus.deliver(sub, event)
		}
	}
}

func (bus *SyncEventBus) deliver(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && bus.logger != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())),
				slog.String("subscription", string(sub.id)))
		}
	}()
	sub.handler(event)
}

// Subscribe registers handler for one event type.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.SubscribeFiltered(eventType, nil, handler)
}

// SubscribeFiltered registers handler for the events of eventType that pass filter.
// A nil filter accepts everything.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	sub := bus.newSubscription("sub", handler, filter)
	bus.byType[eventType] = append(bus.byType[eventType], sub)
	return sub.id
}

// SubscribeAll registers handler for every event.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	sub := bus.newSubscription("sub-all", handler, nil)
	bus.wildcard = append(bus.wildcard, sub)
	return sub.id
}

// newSubscription must be called with mu held.
func (bus *SyncEventBus) newSubscription(prefix string, handler domain.EventHandler, filter ports.EventFilter) subscription {
	if handler == nil {
		panic("eventbus: nil handler")
	}
	if bus.closed {
		panic("eventbus: subscribe on closed bus")
	}
	bus.nextID++
	return subscription{
		id:      domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID)),
		handler: handler,
		filter:  filter,
	}
}

// Unsubscribe removes a subscription. Unknown IDs are ignored. Delivery order of
// the remaining subscribers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for eventType, subs := range bus.byType {
		if rest, ok := without(subs, id); ok {
			bus.byType[eventType] = rest
			return
		}
	}
	if rest, ok := without(bus.wildcard, id); ok {
		bus.wildcard = rest
	}
}

func without(subs []subscription, id domain.SubscriptionID) ([]subscription, bool) {
	for i, sub := range subs {
		if sub.id == id {
			out := make([]subscription, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			return append(out, subs[i+1:]...), true
		}
	}
	return subs, false
}

// HasSubscribers reports whether publishing eventType would reach anyone.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.byType[eventType]) > 0 || len(bus.wildcard) > 0
}

// SubscriberCount returns the number of live subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	n := len(bus.wildcard)
	for _, subs := range bus.byType {
		n += len(subs)
	}
	return n
}

// Close drops every subscription. Closing twice returns an error.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}
	bus.closed = true
	bus.byType = make(map[domain.EventType][]subscription)
	bus.wildcard = nil
	return nil
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
