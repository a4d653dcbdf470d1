package chassis

import (
	"context"
	"errors"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventCollector struct {
	mu     sync.Mutex
	id     string
	types  []string
	failOn string
}

func (c *eventCollector) OnEvent(_ context.Context, event cloudevents.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != "" && event.Type() == c.failOn {
		return errors.New("handler failure")
	}
	c.types = append(c.types, event.Type())
	return nil
}

func (c *eventCollector) ObserverID() string { return c.id }

func (c *eventCollector) Types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out
}

func TestGetServiceExactAndAssignable(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.Registry().RegisterInstance(&storageService{name: "disk"}))

	var svc *storageService
	require.NoError(t, app.GetService(&svc))
	assert.Equal(t, "disk", svc.name)

	// Interface targets are matched by assignability.
	var enableable Enableable
	require.NoError(t, app.Registry().RegisterInstance(&dbService{}))
	require.NoError(t, app.GetService(&enableable))
	assert.NotNil(t, enableable)
}

func TestGetServiceRejectsNonPointer(t *testing.T) {
	app := newTestApp()

	err := app.GetService(storageService{})
	assert.ErrorIs(t, err, ErrTargetNotPointer)

	var nilTarget *storageService
	err = app.GetService(nilTarget)
	assert.ErrorIs(t, err, ErrTargetNotPointer)
}

func TestGetServiceNotFound(t *testing.T) {
	app := newTestApp()

	var svc *storageService
	err := app.GetService(&svc)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestConfigSections(t *testing.T) {
	app := newTestApp()

	_, err := app.GetConfigSection("database")
	assert.ErrorIs(t, err, ErrConfigSectionNotFound)

	provider := NewStdConfigProvider(&struct{ DSN string }{})
	app.RegisterConfigSection("database", provider)

	got, err := app.GetConfigSection("database")
	require.NoError(t, err)
	assert.Same(t, provider, got)
	assert.Len(t, app.ConfigSections(), 1)
}

func TestStartStopEmitLifecycleEvents(t *testing.T) {
	app := newTestApp()
	collector := &eventCollector{id: "lifecycle"}
	require.NoError(t, app.RegisterObserver(collector,
		EventTypeApplicationStarted, EventTypeApplicationStopped))

	require.NoError(t, app.Registry().RegisterConstructor(
		func() *dbService { return &dbService{} },
	))

	ctx := context.Background()
	require.NoError(t, app.Start(ctx, []ServiceDescriptor{
		{Type: ServiceType[*dbService]()},
	}))
	app.Stop(ctx)

	assert.Equal(t, []string{EventTypeApplicationStarted, EventTypeApplicationStopped}, collector.Types())
}

func TestServiceEventsReachObservers(t *testing.T) {
	app := newTestApp()
	collector := &eventCollector{id: "services"}
	require.NoError(t, app.RegisterObserver(collector))

	require.NoError(t, app.Registry().RegisterConstructor(
		func() (*dbService, error) { return nil, errors.New("down") },
		func() *queueService { return &queueService{} },
	))

	require.NoError(t, app.Start(context.Background(), []ServiceDescriptor{
		{Type: ServiceType[*dbService]()},
		{Type: ServiceType[*queueService]()},
	}))

	types := collector.Types()
	assert.Contains(t, types, EventTypeServiceFailed)
	assert.Contains(t, types, EventTypeServiceRegistered)
	assert.Contains(t, types, EventTypeApplicationStarted)
}

func TestObserverFilterAndUnregister(t *testing.T) {
	app := newTestApp()
	filtered := &eventCollector{id: "filtered"}
	all := &eventCollector{id: "all"}

	require.NoError(t, app.RegisterObserver(filtered, EventTypeServiceEnabled))
	require.NoError(t, app.RegisterObserver(all))
	require.Len(t, app.GetObservers(), 2)

	event := NewCloudEvent(EventTypeServiceRegistered, "test", nil, nil)
	require.NoError(t, app.NotifyObservers(context.Background(), event))

	assert.Empty(t, filtered.Types())
	assert.Equal(t, []string{EventTypeServiceRegistered}, all.Types())

	require.NoError(t, app.UnregisterObserver(all))
	require.NoError(t, app.UnregisterObserver(all))
	assert.Len(t, app.GetObservers(), 1)
}

func TestObserverErrorDoesNotStopDelivery(t *testing.T) {
	app := newTestApp()
	failing := &eventCollector{id: "failing", failOn: EventTypeServiceRegistered}
	healthy := &eventCollector{id: "healthy"}

	require.NoError(t, app.RegisterObserver(failing))
	require.NoError(t, app.RegisterObserver(healthy))

	event := NewCloudEvent(EventTypeServiceRegistered, "test", nil, nil)
	require.NoError(t, app.NotifyObservers(context.Background(), event))

	assert.Equal(t, []string{EventTypeServiceRegistered}, healthy.Types())
	logger := app.Logger().(*MockLogger)
	assert.Equal(t, 1, logger.WarnCount())
}

func TestRegisterNilObserver(t *testing.T) {
	app := newTestApp()
	assert.ErrorIs(t, app.RegisterObserver(nil), ErrObserverNil)
	assert.ErrorIs(t, app.UnregisterObserver(nil), ErrObserverNil)
}

func TestNewCloudEventShape(t *testing.T) {
	event := NewCloudEvent(EventTypeServiceEnabled, "service-manager",
		map[string]any{"serviceType": "*chassis.dbService"},
		map[string]any{"attempt": 1})

	assert.NotEmpty(t, event.ID())
	assert.Equal(t, EventTypeServiceEnabled, event.Type())
	assert.Equal(t, "service-manager", event.Source())
	require.NoError(t, ValidateCloudEvent(event))
}
