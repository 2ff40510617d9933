package chassis

import (
	"maps"
	"reflect"
	"slices"
	"sync"
)

// Registry maps service names to instantiated services. A name is written
// once, when its service has been built, and never changes afterwards.
type Registry struct {
	id string

	mu       sync.RWMutex
	services map[string]any
	order    []string
}

// NewRegistry returns an empty registry identified by id.
func NewRegistry(id string) *Registry {
	return &Registry{id: id, services: make(map[string]any)}
}

// ID identifies the resolution run that filled the registry.
func (r *Registry) ID() string {
	return r.id
}

// Register stores svc under name. A second write of the same name fails.
func (r *Registry) Register(name string, svc any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return AlreadyRegisteredError{Name: name}
	}
	r.services[name] = svc
	r.order = append(r.order, name)
	return nil
}

// Get returns the service registered under name, or UnknownServiceError.
func (r *Registry) Get(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[name]
	if !ok {
		return nil, UnknownServiceError{Name: name, Available: slices.Collect(maps.Keys(r.services))}
	}
	return svc, nil
}

// MustGet is like Get but panics when name is absent.
func (r *Registry) MustGet(name string) any {
	svc, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return svc
}

// Has reports whether name has been instantiated.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.services[name]
	return ok
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.services))
}

// Order returns the names in the order they were instantiated.
func (r *Registry) Order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.services)
}

// All returns a copy of the name to service mapping.
func (r *Registry) All() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.services)
}

// Resolve returns the service registered under name as a T.
func Resolve[T any](services ServiceLookup, name string) (T, error) {
	var zero T

	svc, err := services.Get(name)
	if err != nil {
		return zero, err
	}

	result, ok := svc.(T)
	if !ok {
		return zero, TypeMismatchError{
			Name:     name,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(svc),
		}
	}

	return result, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](services ServiceLookup, name string) T {
	result, err := Resolve[T](services, name)
	if err != nil {
		panic(err)
	}
	return result
}
