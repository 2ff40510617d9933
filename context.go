package chassis

import (
	"context"
	"errors"
)

// ErrRegistryNotInContext is returned by FromContext when no registry was
// attached to the context.
var ErrRegistryNotInContext = errors.New("registry not found in context")

// registryContextKey is the key for storing a registry in context.
type registryContextKey struct{}

// WithRegistry returns a copy of ctx carrying registry.
func WithRegistry(ctx context.Context, registry *Registry) context.Context {
	return context.WithValue(ctx, registryContextKey{}, registry)
}

// FromContext gets the registry attached by WithRegistry.
func FromContext(ctx context.Context) (*Registry, error) {
	registry, ok := ctx.Value(registryContextKey{}).(*Registry)
	if !ok || registry == nil {
		return nil, ErrRegistryNotInContext
	}
	return registry, nil
}
