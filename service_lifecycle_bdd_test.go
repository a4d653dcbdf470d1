package chassis

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cucumber/godog"
)

// Static error variables for BDD tests to comply with err113 linting rule
var (
	errAppNotCreated            = errors.New("application was not created in background")
	errServiceNotConstructed    = errors.New("service was not constructed")
	errServiceNotRetrievable    = errors.New("service could not be retrieved from the application")
	errWrongConstructionOrder   = errors.New("services were constructed out of dependency order")
	errConsumerMissingProvider  = errors.New("consumer did not receive the provider instance")
	errServiceNotEnabled        = errors.New("service was not enabled")
	errServiceNotDisabled       = errors.New("service was not disabled")
	errFailingServiceRegistered = errors.New("failing service was registered anyway")
	errExpectedRegistrationFail = errors.New("expected registration to fail")
	errWrongErrorKind           = errors.New("registration failed with the wrong error")
)

type bddProviderService struct{}

type bddConsumerService struct {
	provider *bddProviderService
}

type bddSimpleService struct{}

type bddLifecycleService struct {
	enabled  bool
	disabled bool
}

func (s *bddLifecycleService) Enable(_ context.Context) error {
	s.enabled = true
	return nil
}

func (s *bddLifecycleService) Disable(_ context.Context) error {
	s.disabled = true
	return nil
}

type bddFailingService struct{}

// lifecycleBDDContext holds the state for lifecycle BDD scenarios.
type lifecycleBDDContext struct {
	app         *StdApplication
	descriptors []ServiceDescriptor
	startErr    error
	lifecycle   *bddLifecycleService
}

func (c *lifecycleBDDContext) iHaveAStandardApplication() error {
	c.app = NewStdApplication(NewStdConfigProvider(nil), &MockLogger{})
	c.descriptors = nil
	c.startErr = nil
	return nil
}

func (c *lifecycleBDDContext) iHaveASimpleTestService() error {
	if err := c.app.Registry().RegisterConstructor(func() *bddSimpleService {
		return &bddSimpleService{}
	}); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, ServiceDescriptor{Type: ServiceType[*bddSimpleService]()})
	return nil
}

func (c *lifecycleBDDContext) iHaveAProviderService() error {
	if err := c.app.Registry().RegisterConstructor(func() *bddProviderService {
		return &bddProviderService{}
	}); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, ServiceDescriptor{Type: ServiceType[*bddProviderService]()})
	return nil
}

func (c *lifecycleBDDContext) iHaveAConsumerService() error {
	if err := c.app.Registry().RegisterConstructor(func(p *bddProviderService) *bddConsumerService {
		return &bddConsumerService{provider: p}
	}); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, ServiceDescriptor{
		Type:         ServiceType[*bddConsumerService](),
		Dependencies: []reflect.Type{ServiceType[*bddProviderService]()},
	})
	return nil
}

func (c *lifecycleBDDContext) iHaveAnEnableableTestService() error {
	c.lifecycle = &bddLifecycleService{}
	if err := c.app.Registry().RegisterInstance(c.lifecycle); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, ServiceDescriptor{Type: ServiceType[*bddLifecycleService]()})
	return nil
}

func (c *lifecycleBDDContext) iHaveAServiceWhoseConstructorFails() error {
	if err := c.app.Registry().RegisterConstructor(func() (*bddFailingService, error) {
		return nil, errors.New("constructor failure")
	}); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, ServiceDescriptor{Type: ServiceType[*bddFailingService]()})
	return nil
}

func (c *lifecycleBDDContext) iHaveTwoServicesWithCircularDependencies() error {
	c.descriptors = append(c.descriptors,
		ServiceDescriptor{
			Type:         ServiceType[*bddProviderService](),
			Dependencies: []reflect.Type{ServiceType[*bddConsumerService]()},
		},
		ServiceDescriptor{
			Type:         ServiceType[*bddConsumerService](),
			Dependencies: []reflect.Type{ServiceType[*bddProviderService]()},
		},
	)
	return nil
}

func (c *lifecycleBDDContext) iHaveAServiceDependingOnAnUnknownType() error {
	c.descriptors = append(c.descriptors, ServiceDescriptor{
		Type:         ServiceType[*bddConsumerService](),
		Dependencies: []reflect.Type{ServiceType[*bddProviderService]()},
	})
	return nil
}

func (c *lifecycleBDDContext) iRegisterTheServices() error {
	if c.app == nil {
		return errAppNotCreated
	}
	c.startErr = c.app.Manager().RegisterAll(c.descriptors)
	return nil
}

func (c *lifecycleBDDContext) iStartTheApplication() error {
	if c.app == nil {
		return errAppNotCreated
	}
	c.startErr = c.app.Start(context.Background(), c.descriptors)
	return nil
}

func (c *lifecycleBDDContext) iStopTheApplication() error {
	c.app.Stop(context.Background())
	return nil
}

func (c *lifecycleBDDContext) theServiceShouldBeConstructed() error {
	if _, ok := c.app.Manager().Service(ServiceType[*bddSimpleService]()); !ok {
		return errServiceNotConstructed
	}
	return nil
}

func (c *lifecycleBDDContext) theServiceShouldBeRetrievable() error {
	var svc *bddSimpleService
	if err := c.app.GetService(&svc); err != nil || svc == nil {
		return errServiceNotRetrievable
	}
	return nil
}

func (c *lifecycleBDDContext) bothServicesConstructedInOrder() error {
	order := c.app.Manager().RegistrationOrder()
	providerIdx, consumerIdx := -1, -1
	for i, t := range order {
		switch t {
		case ServiceType[*bddProviderService]():
			providerIdx = i
		case ServiceType[*bddConsumerService]():
			consumerIdx = i
		}
	}
	if providerIdx == -1 || consumerIdx == -1 || providerIdx > consumerIdx {
		return errWrongConstructionOrder
	}
	return nil
}

func (c *lifecycleBDDContext) theConsumerShouldReceiveTheProvider() error {
	svc, ok := c.app.Manager().Service(ServiceType[*bddConsumerService]())
	if !ok {
		return errServiceNotConstructed
	}
	if svc.(*bddConsumerService).provider == nil {
		return errConsumerMissingProvider
	}
	return nil
}

func (c *lifecycleBDDContext) theServiceShouldBeEnabled() error {
	if !c.lifecycle.enabled {
		return errServiceNotEnabled
	}
	return nil
}

func (c *lifecycleBDDContext) theServiceShouldBeDisabled() error {
	if !c.lifecycle.disabled {
		return errServiceNotDisabled
	}
	return nil
}

func (c *lifecycleBDDContext) theFailingServiceShouldNotBeRegistered() error {
	if _, ok := c.app.Manager().Service(ServiceType[*bddFailingService]()); ok {
		return errFailingServiceRegistered
	}
	return nil
}

func (c *lifecycleBDDContext) theSimpleServiceShouldStillBeConstructed() error {
	return c.theServiceShouldBeConstructed()
}

func (c *lifecycleBDDContext) theRegistrationShouldFail() error {
	if c.startErr == nil {
		return errExpectedRegistrationFail
	}
	return nil
}

func (c *lifecycleBDDContext) theErrorShouldIndicateACircularDependency() error {
	if !errors.Is(c.startErr, ErrCircularDependency) {
		return errWrongErrorKind
	}
	return nil
}

func (c *lifecycleBDDContext) theErrorShouldIndicateAMissingDependency() error {
	if !errors.Is(c.startErr, ErrDependencyMissing) {
		return errWrongErrorKind
	}
	return nil
}

// InitializeLifecycleScenario wires the lifecycle BDD steps.
func InitializeLifecycleScenario(ctx *godog.ScenarioContext) {
	testCtx := &lifecycleBDDContext{}

	ctx.Step(`^I have a standard application$`, testCtx.iHaveAStandardApplication)
	ctx.Step(`^I have a simple test service$`, testCtx.iHaveASimpleTestService)
	ctx.Step(`^I have a provider service$`, testCtx.iHaveAProviderService)
	ctx.Step(`^I have a consumer service that depends on the provider$`, testCtx.iHaveAConsumerService)
	ctx.Step(`^I have an enableable test service$`, testCtx.iHaveAnEnableableTestService)
	ctx.Step(`^I have a service whose constructor fails$`, testCtx.iHaveAServiceWhoseConstructorFails)
	ctx.Step(`^I have two services with circular dependencies$`, testCtx.iHaveTwoServicesWithCircularDependencies)
	ctx.Step(`^I have a service depending on an unknown type$`, testCtx.iHaveAServiceDependingOnAnUnknownType)

	ctx.Step(`^I register the service with the application$`, testCtx.iRegisterTheServices)
	ctx.Step(`^I register both services with the application$`, testCtx.iRegisterTheServices)
	ctx.Step(`^I start the application$`, testCtx.iStartTheApplication)
	ctx.Step(`^I stop the application$`, testCtx.iStopTheApplication)

	ctx.Step(`^the service should be constructed$`, testCtx.theServiceShouldBeConstructed)
	ctx.Step(`^the service should be retrievable from the application$`, testCtx.theServiceShouldBeRetrievable)
	ctx.Step(`^both services should be constructed in dependency order$`, testCtx.bothServicesConstructedInOrder)
	ctx.Step(`^the consumer should receive the provider instance$`, testCtx.theConsumerShouldReceiveTheProvider)
	ctx.Step(`^the service should be enabled$`, testCtx.theServiceShouldBeEnabled)
	ctx.Step(`^the service should be disabled$`, testCtx.theServiceShouldBeDisabled)
	ctx.Step(`^the failing service should not be registered$`, testCtx.theFailingServiceShouldNotBeRegistered)
	ctx.Step(`^the simple service should still be constructed$`, testCtx.theSimpleServiceShouldStillBeConstructed)
	ctx.Step(`^the registration should fail$`, testCtx.theRegistrationShouldFail)
	ctx.Step(`^the error should indicate a circular dependency$`, testCtx.theErrorShouldIndicateACircularDependency)
	ctx.Step(`^the error should indicate a missing dependency$`, testCtx.theErrorShouldIndicateAMissingDependency)
}

// TestServiceLifecycle runs the BDD tests for the service lifecycle
func TestServiceLifecycle(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/service_lifecycle.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
