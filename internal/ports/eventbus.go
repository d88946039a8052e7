// Package ports defines the interfaces the services depend on.
// Adapters implement them; the services never import an adapter.
package ports

import (
	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// EventFilter decides whether a subscriber sees an event.
type EventFilter func(event domain.Event) bool

// EventBus carries state changes from the services to whoever listens:
// the presenter, the preference store and the tick scheduler.
//
// Implementations must be safe for concurrent use. Handlers run on the
// publisher's goroutine, which for visualizer events is a tick goroutine,
// so a handler that touches the UI hops onto the UI thread itself.
//
//	id := bus.Subscribe(domain.EventModeChanged, func(event domain.Event) {
//	    ui.SetMode(event.(domain.ModeChangedEvent).Mode)
//	})
//	defer bus.Unsubscribe(id)
type EventBus interface {
	// Publish delivers event to every matching subscriber.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeFiltered is Subscribe with a filter; a nil filter accepts everything.
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID

	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a subscription. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// HasSubscribers reports whether publishing eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops every subscription. Later publishes are ignored.
	Close() error
}
