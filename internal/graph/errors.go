package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidConfiguration    = errors.New("invalid service configuration")
	ErrCircularDependency      = errors.New("circular dependency detected")
	ErrUnsatisfiableDependency = errors.New("no service can be instantiated")
)

// CircularDependencyError represents a reference chain that leads back to
// one of its own members. Path ends with the repeated name.
type CircularDependencyError struct {
	Path []string
}

// PathString joins the path the way it is reported: a->b->a.
func (e CircularDependencyError) PathString() string {
	return strings.Join(e.Path, "->")
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "circular dependency detected: %s\n\n", e.PathString())

	for i, name := range e.Path {
		if i == len(e.Path)-1 {
			fmt.Fprintf(&b, "    %s (cycle)\n", name)
			break
		}
		fmt.Fprintf(&b, "    %s\n", name)
		b.WriteString("      ↓\n")
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Remove one of the @references from the constructor args\n")
	b.WriteString("  • Wire the late dependency through a call instead\n")

	return b.String()
}

func (e CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// UnsatisfiableDependencyError is returned when a scheduling round finds no
// service whose dependencies are all instantiated. Remaining maps every
// service still waiting to the names it waits on.
type UnsatisfiableDependencyError struct {
	Remaining map[string][]string
}

// Names returns the waiting services in ascending order.
func (e UnsatisfiableDependencyError) Names() []string {
	names := make([]string, 0, len(e.Remaining))
	for name := range e.Remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e UnsatisfiableDependencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no service can be instantiated, %d remaining:\n", len(e.Remaining))
	for _, name := range e.Names() {
		fmt.Fprintf(&b, "  %s waits on [%s]\n", name, strings.Join(e.Remaining[name], ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e UnsatisfiableDependencyError) Is(target error) bool {
	return target == ErrUnsatisfiableDependency
}

// MissingDependencyError is returned by the cycle detector when a service
// references a name that has no node.
type MissingDependencyError struct {
	Service    string
	Dependency string
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("service %q depends on %q, which is not configured", e.Service, e.Dependency)
}

func (e MissingDependencyError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
