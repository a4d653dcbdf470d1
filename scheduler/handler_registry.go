package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/chassiskit/chassis"
)

// HandlerRegistry owns all handlers by name and starts the ones flagged for
// automatic startup at application boot.
type HandlerRegistry struct {
	logger  chassis.Logger
	adapter Adapter
	subject chassis.Subject

	mu       sync.RWMutex
	handlers map[string]*Handler
}

// NewHandlerRegistry creates a registry scheduling through adapter.
func NewHandlerRegistry(logger chassis.Logger, adapter Adapter) *HandlerRegistry {
	return &HandlerRegistry{
		logger:   logger,
		adapter:  adapter,
		handlers: make(map[string]*Handler),
	}
}

// SetEventSubject wires a Subject to receive handler lifecycle events.
func (r *HandlerRegistry) SetEventSubject(subject chassis.Subject) {
	r.subject = subject
}

// Register adds handlers to the registry. A second handler with an already
// registered name is rejected.
func (r *HandlerRegistry) Register(handlers ...*Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range handlers {
		if _, exists := r.handlers[h.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrHandlerAlreadyRegistered, h.Name())
		}
		r.handlers[h.Name()] = h
		r.logger.Debug("Registered scheduler handler", "handler", h.Name())
	}
	return nil
}

// Handler returns the handler registered under name, if present.
func (r *HandlerRegistry) Handler(name string) (*Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// StartAll starts every handler flagged for automatic startup, honouring
// each handler's declared primary/worker preference. Start failures are
// logged and do not stop the pass.
func (r *HandlerRegistry) StartAll() {
	r.mu.RLock()
	handlers := make([]*Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		if !h.AutoStarts() {
			continue
		}
		if err := h.Start(r.adapter, h.PrefersWorker()); err != nil {
			r.logger.Error("Failed to auto-start handler", "handler", h.Name(), "error", err)
			continue
		}
		r.logger.Info("Started scheduler handler", "handler", h.Name(), "worker", h.PrefersWorker())
		r.emit(EventTypeHandlerStarted, h.Name())
	}
}

// Start starts the named handler on the requested context.
func (r *HandlerRegistry) Start(name string, useWorker bool) error {
	h, ok := r.Handler(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	if err := h.Start(r.adapter, useWorker); err != nil {
		return err
	}
	r.emit(EventTypeHandlerStarted, name)
	return nil
}

// Stop stops the named handler. Stopping an idle handler is a no-op.
func (r *HandlerRegistry) Stop(name string) error {
	h, ok := r.Handler(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	h.Stop()
	r.emit(EventTypeHandlerStopped, name)
	return nil
}

// StopAll stops every registered handler.
func (r *HandlerRegistry) StopAll() {
	r.mu.RLock()
	handlers := make([]*Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		if h.Running() {
			h.Stop()
			r.logger.Debug("Stopped scheduler handler", "handler", h.Name())
			r.emit(EventTypeHandlerStopped, h.Name())
		}
	}
}

func (r *HandlerRegistry) emit(eventType, name string) {
	if r.subject == nil {
		return
	}
	event := chassis.NewCloudEvent(eventType, "scheduler", map[string]any{"handler": name}, nil)
	if err := r.subject.NotifyObservers(context.Background(), event); err != nil {
		r.logger.Debug("Failed to emit handler event", "type", eventType, "error", err)
	}
}
