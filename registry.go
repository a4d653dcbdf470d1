package chassis

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// ServiceRegistry instantiates and caches singleton service instances.
//
// Service types are registered together with one or more constructor
// functions. A constructor is an ordinary Go function returning the service
// (optionally with a trailing error); its parameters declare the
// dependencies. When a service is created, the registry tries each
// constructor in registration order and uses the first one whose every
// parameter can be resolved, either from the root Application or from an
// already-cached instance of an exact or assignable type. Constructors that
// only partially resolve are skipped, never invoked with partial arguments.
//
// The instance cache is insert-if-absent: at most one instance per type ever
// exists, and a racing duplicate construction is reported as an error rather
// than silently overwriting.
type ServiceRegistry struct {
	app    Application
	logger Logger

	mu           sync.RWMutex
	instances    map[reflect.Type]any
	named        map[string]any
	constructors map[reflect.Type][]reflect.Value
	inflight     map[reflect.Type]*inflightBuild

	trackTimings bool
	timings      map[reflect.Type]time.Duration
}

type inflightBuild struct {
	done     chan struct{}
	instance any
	err      error
}

// NewServiceRegistry creates a registry bound to the given root application.
// The application instance itself is injectable into any constructor
// parameter it is assignable to.
func NewServiceRegistry(app Application) *ServiceRegistry {
	return &ServiceRegistry{
		app:          app,
		logger:       app.Logger(),
		instances:    make(map[reflect.Type]any),
		named:        make(map[string]any),
		constructors: make(map[reflect.Type][]reflect.Value),
		inflight:     make(map[reflect.Type]*inflightBuild),
		timings:      make(map[reflect.Type]time.Duration),
	}
}

// RegisterConstructor registers constructor functions. Each function must
// return the service instance, optionally followed by an error. The type
// identity of a service is its first return type.
func (r *ServiceRegistry) RegisterConstructor(ctors ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ctor := range ctors {
		fn := reflect.ValueOf(ctor)
		if fn.Kind() != reflect.Func {
			return fmt.Errorf("%w: got %T", ErrInvalidConstructor, ctor)
		}
		fnType := fn.Type()
		switch fnType.NumOut() {
		case 1:
		case 2:
			if !fnType.Out(1).Implements(errorType) {
				return fmt.Errorf("%w: second return value of %s must be error", ErrInvalidConstructor, fnType)
			}
		default:
			return fmt.Errorf("%w: %s must return the service and an optional error", ErrInvalidConstructor, fnType)
		}

		svcType := fnType.Out(0)
		r.constructors[svcType] = append(r.constructors[svcType], fn)
	}
	return nil
}

// RegisterInstance inserts a pre-built instance into the cache, keyed by its
// concrete type. Insertion is insert-if-absent; registering a second instance
// of the same type is an error.
func (r *ServiceRegistry) RegisterInstance(instance any) error {
	t := reflect.TypeOf(instance)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[t]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, t)
	}
	r.instances[t] = instance
	r.logger.Debug("Registered service instance", "type", t)
	return nil
}

// RegisterNamed registers an instance under a custom name, independent of the
// type-keyed cache.
func (r *ServiceRegistry) RegisterNamed(name string, instance any) {
	r.mu.Lock()
	r.named[name] = instance
	r.mu.Unlock()
	r.logger.Debug("Registered named instance", "name", name)
}

// GetNamed returns an instance previously registered under name, or nil.
func (r *ServiceRegistry) GetNamed(name string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.named[name]
}

// Get returns the cached instance for t, if present.
func (r *ServiceRegistry) Get(t reflect.Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.instances[t]
	return instance, ok
}

// GetOrCreate returns the cached instance for t, constructing it if needed.
// Concurrent calls for the same unconstructed type result in exactly one
// construction; the other callers wait and share the outcome.
func (r *ServiceRegistry) GetOrCreate(t reflect.Type) (any, error) {
	r.mu.Lock()
	if instance, ok := r.instances[t]; ok {
		r.mu.Unlock()
		return instance, nil
	}
	if fl, ok := r.inflight[t]; ok {
		r.mu.Unlock()
		<-fl.done
		return fl.instance, fl.err
	}
	fl := &inflightBuild{done: make(chan struct{})}
	r.inflight[t] = fl
	r.mu.Unlock()

	fl.instance, fl.err = r.Create(t)

	r.mu.Lock()
	delete(r.inflight, t)
	r.mu.Unlock()
	close(fl.done)

	return fl.instance, fl.err
}

// Create constructs a new instance of t and inserts it into the cache.
// It fails with ErrUnresolvableType if t has no registered constructors,
// with ErrNoUsableConstructor if no constructor's parameters all resolve,
// and with ErrServiceAlreadyRegistered if a concurrent construction for the
// same type completed first.
func (r *ServiceRegistry) Create(t reflect.Type) (any, error) {
	r.mu.RLock()
	ctors := r.constructors[t]
	track := r.trackTimings
	r.mu.RUnlock()

	if len(ctors) == 0 {
		return nil, fmt.Errorf("%w: %s has no registered constructors", ErrUnresolvableType, t)
	}

	var start time.Time
	if track {
		start = time.Now()
	}

	instance, err := r.tryConstructors(t, ctors)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.instances[t]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, t)
	}
	r.instances[t] = instance
	if track {
		r.timings[t] = time.Since(start)
	}
	r.mu.Unlock()

	return instance, nil
}

// tryConstructors attempts each constructor in order and uses the first one
// whose parameters all resolve.
func (r *ServiceRegistry) tryConstructors(t reflect.Type, ctors []reflect.Value) (any, error) {
	var lastErr error
	for _, fn := range ctors {
		args, ok := r.resolveArgs(fn.Type())
		if !ok {
			continue
		}

		results := fn.Call(args)
		if len(results) == 2 && !results[1].IsNil() {
			lastErr = results[1].Interface().(error)
			continue
		}
		return results[0].Interface(), nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoUsableConstructor, t, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoUsableConstructor, t)
}

// resolveArgs resolves every parameter of a constructor, or reports failure
// without invoking it.
func (r *ServiceRegistry) resolveArgs(fnType reflect.Type) ([]reflect.Value, bool) {
	args := make([]reflect.Value, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		value, ok := r.resolveParam(fnType.In(i))
		if !ok {
			return nil, false
		}
		args[i] = value
	}
	return args, true
}

func (r *ServiceRegistry) resolveParam(paramType reflect.Type) (reflect.Value, bool) {
	// The root application satisfies any parameter it is assignable to.
	appValue := reflect.ValueOf(r.app)
	if appValue.Type().AssignableTo(paramType) {
		return appValue, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Exact type match first, then assignability (covers interface params).
	if instance, ok := r.instances[paramType]; ok {
		return reflect.ValueOf(instance), true
	}
	for t, instance := range r.instances {
		if t.AssignableTo(paramType) {
			return reflect.ValueOf(instance), true
		}
	}
	return reflect.Value{}, false
}

// Instances returns a snapshot of all cached instances keyed by type.
func (r *ServiceRegistry) Instances() map[reflect.Type]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[reflect.Type]any, len(r.instances))
	for t, instance := range r.instances {
		snapshot[t] = instance
	}
	return snapshot
}

// Count returns the number of cached instances.
func (r *ServiceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// SetTrackTimings enables or disables construction-time tracking.
func (r *ServiceRegistry) SetTrackTimings(track bool) {
	r.mu.Lock()
	r.trackTimings = track
	r.mu.Unlock()
}

// ConstructionTime returns the recorded construction duration for t, or
// false if timing was not tracked for it.
func (r *ServiceRegistry) ConstructionTime(t reflect.Type) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.timings[t]
	return d, ok
}

// ClearCache drops all cached instances, named instances and timings.
// It does not run any lifecycle hooks.
func (r *ServiceRegistry) ClearCache() {
	r.mu.Lock()
	r.instances = make(map[reflect.Type]any)
	r.named = make(map[string]any)
	r.timings = make(map[reflect.Type]time.Duration)
	r.mu.Unlock()
	r.logger.Warn("Service registry cache cleared")
}

// Resolve returns the cached instance assignable to T, constructing it via
// GetOrCreate when T identifies a registered service type.
func Resolve[T any](r *ServiceRegistry) (T, error) {
	var zero T
	target := ServiceType[T]()

	instance, err := r.GetOrCreate(target)
	if err == nil {
		return instance.(T), nil
	}

	// T may be an interface satisfied by an already-cached instance.
	r.mu.RLock()
	for t, cached := range r.instances {
		if t.AssignableTo(target) {
			r.mu.RUnlock()
			return cached.(T), nil
		}
	}
	r.mu.RUnlock()

	return zero, fmt.Errorf("%w: %s", ErrServiceNotFound, target)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
