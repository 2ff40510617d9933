package testutil

import (
	"errors"
	"testing"

	"github.com/refinery29/chassis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolved checks a service was instantiated with type T
func AssertResolved[T any](t *testing.T, registry *chassis.Registry, name string) T {
	t.Helper()
	service, err := chassis.Resolve[T](registry, name)
	require.NoError(t, err, "failed to resolve %q as %T", name, *new(T))
	return service
}

// AssertNotResolved checks a registry has no service under name
func AssertNotResolved(t *testing.T, registry *chassis.Registry, name string) {
	t.Helper()
	_, err := registry.Get(name)
	assert.Error(t, err)
	assert.ErrorIs(t, err, chassis.ErrUnknownService)
}

// AssertCircularDependency checks err reports a cycle whose path contains names
func AssertCircularDependency(t *testing.T, err error, names ...string) chassis.CircularDependencyError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, chassis.IsCircularDependency(err), "expected circular dependency error, got: %v", err)

	var circErr chassis.CircularDependencyError
	require.True(t, errors.As(err, &circErr))
	for _, name := range names {
		assert.Contains(t, circErr.Path, name)
	}
	return circErr
}

// AssertUnsatisfiable checks err reports services that could never be built
func AssertUnsatisfiable(t *testing.T, err error, remaining ...string) chassis.UnsatisfiableDependencyError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, chassis.ErrUnsatisfiableDependency)

	var unsat chassis.UnsatisfiableDependencyError
	require.True(t, errors.As(err, &unsat))
	assert.ElementsMatch(t, remaining, unsat.Names())
	return unsat
}

// AssertConstructionError checks err is a construction failure at stage
func AssertConstructionError(t *testing.T, err error, service, stage string) chassis.ConstructionError {
	t.Helper()
	require.Error(t, err)

	var cerr chassis.ConstructionError
	require.True(t, errors.As(err, &cerr), "expected construction error, got: %v", err)
	assert.Equal(t, service, cerr.Service)
	assert.Equal(t, stage, cerr.Stage)
	return cerr
}
