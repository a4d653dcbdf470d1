package chassis

import (
	"context"
	"reflect"
)

// ServiceDescriptor identifies a service type managed by the ServiceManager.
// Dependencies lists the type identities of other services that must be
// constructed before this one. Every entry must match the type of another
// descriptor passed to the same RegisterAll call; a dangling dependency is a
// configuration error.
type ServiceDescriptor struct {
	// Type is the unique type identity of the service, usually obtained
	// via ServiceType[T]().
	Type reflect.Type

	// Dependencies are the declared dependency type identities.
	Dependencies []reflect.Type

	// LogRegistration controls whether the manager logs a line when this
	// service is registered.
	LogRegistration bool
}

// ServiceType returns the type identity for T, for use in descriptors and
// registry lookups.
//
// Example:
//
//	chassis.ServiceDescriptor{
//	    Type:         chassis.ServiceType[*CacheService](),
//	    Dependencies: []reflect.Type{chassis.ServiceType[*StorageService]()},
//	}
func ServiceType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Enableable is implemented by services that need a lifecycle-enable hook.
// Enable is called after all services have been constructed, in registration
// order.
type Enableable interface {
	Enable(ctx context.Context) error
}

// Disableable is implemented by services that need a lifecycle-disable hook,
// called during application shutdown.
type Disableable interface {
	Disable(ctx context.Context) error
}

// AutoEnableGate lets a service opt out of the automatic enable pass.
// Services that do not implement this interface are enabled automatically.
type AutoEnableGate interface {
	CanAutoEnable() bool
}

// AutoDisableGate lets a service opt out of the automatic disable pass.
// Services that do not implement this interface are disabled automatically.
type AutoDisableGate interface {
	CanAutoDisable() bool
}

func canAutoEnable(svc any) bool {
	if gate, ok := svc.(AutoEnableGate); ok {
		return gate.CanAutoEnable()
	}
	return true
}

func canAutoDisable(svc any) bool {
	if gate, ok := svc.(AutoDisableGate); ok {
		return gate.CanAutoDisable()
	}
	return true
}
