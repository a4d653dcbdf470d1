// Package chassis provides a dependency-ordered service runtime for Go
// applications. Services are singletons constructed through a type-keyed
// registry that resolves constructor dependencies against already-built
// instances, ordered by a topological sort over their declared dependencies,
// with enable/disable lifecycle hooks fired in registration order.
//
// The scheduler subpackage supplies the matching execution backbone: delayed
// and repeating work on either a single serialized primary context or a
// bounded worker pool.
//
// Basic usage:
//
//	app := chassis.NewStdApplication(configProvider, logger)
//	app.Registry().RegisterConstructor(NewStorageService, NewCacheService)
//	err := app.Manager().RegisterAll([]chassis.ServiceDescriptor{
//	    {Type: chassis.ServiceType[*StorageService]()},
//	    {Type: chassis.ServiceType[*CacheService](),
//	        Dependencies: []reflect.Type{chassis.ServiceType[*StorageService]()}},
//	})
package chassis

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// framework events. Events use the CloudEvents specification for a
// standardized format.
type Observer interface {
	// OnEvent is called when an event the observer subscribed to occurs.
	// Observers should handle events quickly to avoid blocking others.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed. Subjects
// maintain a list of observers and notify them when events occur.
type Subject interface {
	// RegisterObserver adds an observer, optionally filtered by event
	// types. An empty filter receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to all registered observers,
	// handling observer errors gracefully.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes the observer subscribed to; empty means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event type constants for framework events, using reverse domain notation
// per the CloudEvents specification.
const (
	// Service lifecycle events
	EventTypeServiceRegistered = "com.chassiskit.service.registered"
	EventTypeServiceEnabled    = "com.chassiskit.service.enabled"
	EventTypeServiceDisabled   = "com.chassiskit.service.disabled"
	EventTypeServiceFailed     = "com.chassiskit.service.failed"

	// Application lifecycle events
	EventTypeApplicationStarted = "com.chassiskit.application.started"
	EventTypeApplicationStopped = "com.chassiskit.application.stopped"
)

// FunctionalObserver provides a simple way to create observers from
// functions, without defining full structs.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that delegates to handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements Observer by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements Observer by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
