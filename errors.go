package chassis

import (
	"errors"
)

// Framework errors
var (
	// Configuration errors
	ErrConfigSectionNotFound = errors.New("config section not found")
	ErrConfigProviderNil     = errors.New("config provider is nil")
	ErrConfigFeederError     = errors.New("config feeder error")

	// Service registry errors
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrUnresolvableType         = errors.New("type cannot be instantiated")
	ErrNoUsableConstructor      = errors.New("no constructor could resolve all dependencies")
	ErrInvalidConstructor       = errors.New("constructor must be a function returning a service")

	// Dependency resolution errors
	ErrCircularDependency = errors.New("circular dependency detected")
	ErrDependencyMissing  = errors.New("service depends on unknown service type")

	// Service injection errors
	ErrTargetNotPointer = errors.New("target must be a non-nil pointer")

	// Observer errors
	ErrObserverNil = errors.New("observer cannot be nil")
)
