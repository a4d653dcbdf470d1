package chassis

import (
	"context"
	"fmt"
	"reflect"
)

// ServiceManager layers lifecycle management on top of a ServiceRegistry.
// It sorts declared dependencies into construction order, constructs each
// service through the registry, and fires enable/disable hooks in
// registration order.
//
// A construction failure for one service is logged and skipped so the rest
// of the startup sequence can proceed. Registering the same type twice is
// fatal and aborts the surrounding call.
type ServiceManager struct {
	registry *ServiceRegistry
	logger   Logger
	subject  Subject

	services map[reflect.Type]any
	order    []reflect.Type
}

// NewServiceManager creates a manager over the given registry.
func NewServiceManager(registry *ServiceRegistry) *ServiceManager {
	return &ServiceManager{
		registry: registry,
		logger:   registry.logger,
		services: make(map[reflect.Type]any),
	}
}

// SetEventSubject wires a Subject to receive service lifecycle events.
func (m *ServiceManager) SetEventSubject(subject Subject) {
	m.subject = subject
}

// RegisterAll sorts the descriptors into dependency order and constructs
// each service in turn. Failed constructions are logged and skipped; a
// duplicate registration of the same type aborts with an error.
func (m *ServiceManager) RegisterAll(descriptors []ServiceDescriptor) error {
	sorted, err := NewDependencySorter(descriptors).Sort()
	if err != nil {
		return fmt.Errorf("failed to sort service dependencies: %w", err)
	}

	for _, descriptor := range sorted {
		if err := m.register(descriptor); err != nil {
			return err
		}
	}
	return nil
}

// Register constructs and registers a single service.
func (m *ServiceManager) Register(descriptor ServiceDescriptor) error {
	return m.register(descriptor)
}

func (m *ServiceManager) register(descriptor ServiceDescriptor) error {
	if _, exists := m.services[descriptor.Type]; exists {
		return fmt.Errorf("%w: duplicate registration of %s", ErrServiceAlreadyRegistered, descriptor.Type)
	}

	instance, err := m.registry.GetOrCreate(descriptor.Type)
	if err != nil {
		m.logger.Error("Failed to construct service, skipping", "type", descriptor.Type, "error", err)
		m.emit(EventTypeServiceFailed, descriptor.Type, map[string]any{"error": err.Error()})
		return nil
	}

	m.services[descriptor.Type] = instance
	m.order = append(m.order, descriptor.Type)

	if descriptor.LogRegistration {
		m.logger.Info("Registered service", "type", descriptor.Type)
	}
	m.emit(EventTypeServiceRegistered, descriptor.Type, nil)
	return nil
}

// EnableAll fires the enable hook for every registered service that allows
// automatic enabling, in registration order. Hook errors are logged and do
// not stop the pass.
func (m *ServiceManager) EnableAll(ctx context.Context) {
	for _, t := range m.order {
		svc := m.services[t]
		enableable, ok := svc.(Enableable)
		if !ok || !canAutoEnable(svc) {
			continue
		}
		if err := enableable.Enable(ctx); err != nil {
			m.logger.Error("Failed to enable service", "type", t, "error", err)
			m.emit(EventTypeServiceFailed, t, map[string]any{"error": err.Error()})
			continue
		}
		m.logger.Debug("Enabled service", "type", t)
		m.emit(EventTypeServiceEnabled, t, nil)
	}
}

// DisableAll fires the disable hook for every registered service that allows
// automatic disabling. Iteration follows registration order; teardown is not
// reversed.
func (m *ServiceManager) DisableAll(ctx context.Context) {
	for _, t := range m.order {
		svc := m.services[t]
		disableable, ok := svc.(Disableable)
		if !ok || !canAutoDisable(svc) {
			continue
		}
		if err := disableable.Disable(ctx); err != nil {
			m.logger.Error("Failed to disable service", "type", t, "error", err)
			continue
		}
		m.logger.Debug("Disabled service", "type", t)
		m.emit(EventTypeServiceDisabled, t, nil)
	}
}

// Service returns the registered instance for t, if present.
func (m *ServiceManager) Service(t reflect.Type) (any, bool) {
	instance, ok := m.services[t]
	return instance, ok
}

// RegistrationOrder returns the types in the order they were registered.
func (m *ServiceManager) RegistrationOrder() []reflect.Type {
	order := make([]reflect.Type, len(m.order))
	copy(order, m.order)
	return order
}

func (m *ServiceManager) emit(eventType string, serviceType reflect.Type, metadata map[string]any) {
	if m.subject == nil {
		return
	}
	event := NewCloudEvent(eventType, "service-manager", map[string]any{
		"serviceType": serviceType.String(),
	}, metadata)
	if err := m.subject.NotifyObservers(context.Background(), event); err != nil {
		m.logger.Debug("Failed to emit service event", "type", eventType, "error", err)
	}
}
