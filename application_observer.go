package chassis

import (
	"context"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistry holds observer registrations for a Subject.
type observerRegistry struct {
	mu        sync.RWMutex
	logger    Logger
	observers map[string]*observerEntry
}

type observerEntry struct {
	observer     Observer
	eventTypes   []string
	registeredAt time.Time
}

func newObserverRegistry(logger Logger) *observerRegistry {
	return &observerRegistry{
		logger:    logger,
		observers: make(map[string]*observerEntry),
	}
}

// RegisterObserver adds an observer, optionally filtered to eventTypes.
func (app *StdApplication) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}
	reg := app.observerRegistry
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.observers[observer.ObserverID()] = &observerEntry{
		observer:     observer,
		eventTypes:   slices.Clone(eventTypes),
		registeredAt: time.Now(),
	}
	reg.logger.Debug("Registered observer", "id", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Unregistering an unknown observer
// is a no-op.
func (app *StdApplication) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}
	reg := app.observerRegistry
	reg.mu.Lock()
	delete(reg.observers, observer.ObserverID())
	reg.mu.Unlock()
	return nil
}

// NotifyObservers delivers the event to all observers whose filter matches.
// Observer errors are logged and do not stop delivery to the rest.
func (app *StdApplication) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	reg := app.observerRegistry
	reg.mu.RLock()
	entries := make([]*observerEntry, 0, len(reg.observers))
	for _, entry := range reg.observers {
		entries = append(entries, entry)
	}
	reg.mu.RUnlock()

	for _, entry := range entries {
		if len(entry.eventTypes) > 0 && !slices.Contains(entry.eventTypes, event.Type()) {
			continue
		}
		if err := entry.observer.OnEvent(ctx, event); err != nil {
			reg.logger.Warn("Observer failed to handle event",
				"observer", entry.observer.ObserverID(),
				"eventType", event.Type(),
				"error", err)
		}
	}
	return nil
}

// GetObservers returns information about currently registered observers.
func (app *StdApplication) GetObservers() []ObserverInfo {
	reg := app.observerRegistry
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	infos := make([]ObserverInfo, 0, len(reg.observers))
	for id, entry := range reg.observers {
		infos = append(infos, ObserverInfo{
			ID:           id,
			EventTypes:   slices.Clone(entry.eventTypes),
			RegisteredAt: entry.registeredAt,
		})
	}
	return infos
}
