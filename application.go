package chassis

import (
	"context"
	"fmt"
	"reflect"
)

// Application is the root context object for a chassis runtime. It is
// injectable into any service constructor parameter it is assignable to, and
// gives services access to logging and configuration.
type Application interface {
	ConfigProvider() ConfigProvider
	RegisterConfigSection(section string, cp ConfigProvider)
	ConfigSections() map[string]ConfigProvider
	GetConfigSection(section string) (ConfigProvider, error)
	Logger() Logger
}

// StdApplication is the standard Application implementation. It owns the
// service registry and manager and implements Subject so observers can watch
// lifecycle events.
type StdApplication struct {
	cfgProvider ConfigProvider
	cfgSections map[string]ConfigProvider
	logger      Logger
	registry    *ServiceRegistry
	manager     *ServiceManager

	observerRegistry *observerRegistry
}

// NewStdApplication creates a new application instance with an empty service
// registry.
func NewStdApplication(cp ConfigProvider, logger Logger) *StdApplication {
	app := &StdApplication{
		cfgProvider:      cp,
		cfgSections:      make(map[string]ConfigProvider),
		logger:           logger,
		observerRegistry: newObserverRegistry(logger),
	}
	app.registry = NewServiceRegistry(app)
	app.manager = NewServiceManager(app.registry)
	app.manager.SetEventSubject(app)
	return app
}

// ConfigProvider returns the application config provider.
func (app *StdApplication) ConfigProvider() ConfigProvider {
	return app.cfgProvider
}

// RegisterConfigSection registers a configuration section.
func (app *StdApplication) RegisterConfigSection(section string, cp ConfigProvider) {
	app.cfgSections[section] = cp
}

// ConfigSections returns all registered configuration sections.
func (app *StdApplication) ConfigSections() map[string]ConfigProvider {
	return app.cfgSections
}

// GetConfigSection retrieves a configuration section.
func (app *StdApplication) GetConfigSection(section string) (ConfigProvider, error) {
	cp, exists := app.cfgSections[section]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigSectionNotFound, section)
	}
	return cp, nil
}

// Logger returns the application logger.
func (app *StdApplication) Logger() Logger {
	return app.logger
}

// Registry returns the service registry.
func (app *StdApplication) Registry() *ServiceRegistry {
	return app.registry
}

// Manager returns the service manager.
func (app *StdApplication) Manager() *ServiceManager {
	return app.manager
}

// GetService assigns the cached service matching target's type into target,
// which must be a non-nil pointer. Exact type matches win over assignable
// ones; a missing service is an error.
func (app *StdApplication) GetService(target any) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return ErrTargetNotPointer
	}
	targetType := targetValue.Elem().Type()

	if instance, ok := app.registry.Get(targetType); ok {
		targetValue.Elem().Set(reflect.ValueOf(instance))
		return nil
	}
	for t, instance := range app.registry.Instances() {
		if t.AssignableTo(targetType) {
			targetValue.Elem().Set(reflect.ValueOf(instance))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrServiceNotFound, targetType)
}

// Start registers all given descriptors and enables the constructed
// services, then emits the application-started event.
func (app *StdApplication) Start(ctx context.Context, descriptors []ServiceDescriptor) error {
	if err := app.manager.RegisterAll(descriptors); err != nil {
		return err
	}
	app.manager.EnableAll(ctx)
	app.notifyLifecycle(ctx, EventTypeApplicationStarted)
	app.logger.Info("Application started", "services", len(app.manager.RegistrationOrder()))
	return nil
}

// Stop disables all services and emits the application-stopped event.
func (app *StdApplication) Stop(ctx context.Context) {
	app.manager.DisableAll(ctx)
	app.notifyLifecycle(ctx, EventTypeApplicationStopped)
	app.logger.Info("Application stopped")
}

func (app *StdApplication) notifyLifecycle(ctx context.Context, eventType string) {
	event := NewCloudEvent(eventType, "application", nil, nil)
	if err := app.NotifyObservers(ctx, event); err != nil {
		app.logger.Debug("Failed to notify lifecycle observers", "type", eventType, "error", err)
	}
}
