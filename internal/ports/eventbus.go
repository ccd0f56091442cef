package ports

import (
	"github.com/tejashwikalptaru/turntable/internal/domain"
)

// EventBus carries domain events from the services to whoever listens,
// mostly the presenter. Implementations must be safe for concurrent use.
//
//	id := bus.Subscribe(domain.EventTrackLoaded, func(event domain.Event) {
//	    e := event.(domain.TrackLoadedEvent)
//	    view.SetTrackTitle(e.Track.DisplayName())
//	})
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish delivers event to the subscribers of its type and to wildcard subscribers.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether publishing eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions; later publishes are ignored.
	Close() error
}

// EventFilter decides whether a filtered subscription sees an event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus adds predicate subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers handler for the events of eventType that pass filter.
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
