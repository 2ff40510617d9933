package testutil

import (
	"testing"

	"github.com/refinery29/chassis"
	"github.com/stretchr/testify/require"
)

// ConfigBuilder provides a fluent interface for building test configurations
type ConfigBuilder struct {
	t        *testing.T
	services map[string]any
	scalars  chassis.Scalars
}

// NewConfigBuilder creates a new ConfigBuilder
func NewConfigBuilder(t *testing.T) *ConfigBuilder {
	return &ConfigBuilder{
		t:        t,
		services: make(map[string]any),
		scalars:  chassis.Scalars{},
	}
}

// WithService adds a raw descriptor
func (b *ConfigBuilder) WithService(name string, descriptor map[string]any) *ConfigBuilder {
	b.services[name] = descriptor
	return b
}

// WithClass adds an example-module service built with args
func (b *ConfigBuilder) WithClass(name, class string, args ...any) *ConfigBuilder {
	descriptor := map[string]any{"module": Module, "class": class}
	if len(args) > 0 {
		descriptor["args"] = args
	}
	return b.WithService(name, descriptor)
}

// WithScalar adds a scalar value
func (b *ConfigBuilder) WithScalar(name string, value any) *ConfigBuilder {
	b.scalars[name] = value
	return b
}

// Config decodes the collected descriptors
func (b *ConfigBuilder) Config() chassis.Config {
	b.t.Helper()
	cfg, err := chassis.DecodeConfig(b.services)
	require.NoError(b.t, err)
	return cfg
}

// Scalars returns the collected scalar table
func (b *ConfigBuilder) Scalars() chassis.Scalars {
	return b.scalars
}

// Resolver builds a resolver over the example catalog
func (b *ConfigBuilder) Resolver(opts ...chassis.ResolverOption) *chassis.Resolver {
	b.t.Helper()
	return chassis.NewResolver(NewCatalog(), b.Config(), b.scalars, opts...)
}

// Resolve builds and runs a resolver, failing the test on error
func (b *ConfigBuilder) Resolve(opts ...chassis.ResolverOption) *chassis.Registry {
	b.t.Helper()
	registry, err := b.Resolver(opts...).Resolve()
	require.NoError(b.t, err)
	return registry
}
