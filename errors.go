package chassis

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/refinery29/chassis/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Typed errors below report these through Is, so callers can match a whole
// family with errors.Is without caring about the concrete type.

var (
	ErrInvalidConfiguration     = graph.ErrInvalidConfiguration
	ErrImportResolution         = errors.New("module or class not found")
	ErrConstruction             = errors.New("service construction failed")
	ErrUnresolvedReference      = errors.New("scalar reference not found")
	ErrUnknownService           = errors.New("service has not been instantiated")
	ErrCircularDependency       = graph.ErrCircularDependency
	ErrUnsatisfiableDependency  = graph.ErrUnsatisfiableDependency
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrTypeMismatch             = errors.New("service has unexpected type")
)

var (
	_ error = InvalidConfigurationError{}
	_ error = InvalidDescriptorError{}
	_ error = ImportResolutionError{}
	_ error = ConstructionError{}
	_ error = UnresolvedReferenceError{}
	_ error = UnknownServiceError{}
	_ error = AlreadyRegisteredError{}
	_ error = TypeMismatchError{}
	_ error = CircularDependencyError{}
	_ error = UnsatisfiableDependencyError{}
	_ error = MissingDependencyError{}
)

// Type aliases for graph package errors so callers only import chassis.
type (
	CircularDependencyError      = graph.CircularDependencyError
	UnsatisfiableDependencyError = graph.UnsatisfiableDependencyError
	MissingDependencyError       = graph.MissingDependencyError
)

// InvalidConfigurationError indicates a descriptor has the wrong shape: a
// field holds the wrong kind of value (args not a sequence, kwargs not a
// mapping, static not a boolean, ...).
type InvalidConfigurationError struct {
	Service string
	Field   string
	Cause   error
}

func (e InvalidConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Service != "" {
		fmt.Fprintf(&b, " for service %q", e.Service)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " in %q", e.Field)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e InvalidConfigurationError) Unwrap() error {
	return e.Cause
}

func (e InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// InvalidDescriptorError indicates a descriptor lacks a field it needs to be
// built: a module, a class for a non-static service, or a method on a call.
type InvalidDescriptorError struct {
	Service string
	Reason  string
}

func (e InvalidDescriptorError) Error() string {
	if e.Service == "" {
		return "invalid service descriptor: " + e.Reason
	}
	return fmt.Sprintf("invalid service descriptor %q: %s", e.Service, e.Reason)
}

func (e InvalidDescriptorError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ImportResolutionError indicates the catalog has no such module or class.
type ImportResolutionError struct {
	Service string
	Module  string
	Class   string // empty when the module itself is missing
}

func (e ImportResolutionError) Error() string {
	var b strings.Builder
	if e.Class == "" {
		fmt.Fprintf(&b, "module %q not found", e.Module)
	} else {
		fmt.Fprintf(&b, "class %q not found in module %q", e.Class, e.Module)
	}
	if e.Service != "" {
		fmt.Fprintf(&b, " (service %q)", e.Service)
	}
	b.WriteString("\n\nRegister it on the catalog before resolving.")
	return b.String()
}

func (e ImportResolutionError) Is(target error) bool {
	return target == ErrImportResolution
}

// Construction stages reported by ConstructionError.
const (
	StageConstructor   = "constructor"
	StageFactoryMethod = "factory-method"
	StageCall          = "call"
)

// ConstructionError wraps a failure raised while building a service: by its
// constructor, its factory method or one of its post-construction calls.
type ConstructionError struct {
	Service string
	Stage   string
	Method  string // factory method or call method, empty for the constructor
	Cause   error
}

func (e ConstructionError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("service %q: %s %s failed: %v", e.Service, e.Stage, e.Method, e.Cause)
	}
	return fmt.Sprintf("service %q: %s failed: %v", e.Service, e.Stage, e.Cause)
}

func (e ConstructionError) Unwrap() error {
	return e.Cause
}

func (e ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// UnresolvedReferenceError indicates a $name marker has no scalar value.
type UnresolvedReferenceError struct {
	Name string
}

func (e UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("scalar %q not found", e.Name)
}

func (e UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// UnknownServiceError indicates a @name marker or a registry lookup named a
// service that has not been instantiated.
type UnknownServiceError struct {
	Name      string
	Available []string
}

func (e UnknownServiceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "service %q has not been instantiated", e.Name)
	if similar := similarNames(e.Name, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, name := range similar {
			fmt.Fprintf(&b, "  • %s\n", name)
		}
	}
	return b.String()
}

func (e UnknownServiceError) Is(target error) bool {
	return target == ErrUnknownService
}

// AlreadyRegisteredError indicates a second write of the same name.
type AlreadyRegisteredError struct {
	Name string
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("%q already registered", e.Name)
}

func (e AlreadyRegisteredError) Is(target error) bool {
	return target == ErrServiceAlreadyRegistered
}

// TypeMismatchError indicates a registered service is not of the requested type.
type TypeMismatchError struct {
	Name     string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("service %q: expected %v, got %v", e.Name, e.Expected, e.Actual)
}

func (e TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// IsCircularDependency reports whether err was caused by a dependency cycle.
func IsCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// IsUnresolved reports whether err was caused by a missing scalar or service.
func IsUnresolved(err error) bool {
	return errors.Is(err, ErrUnresolvedReference) || errors.Is(err, ErrUnknownService)
}

// IsInvalidConfiguration reports whether err was caused by a malformed descriptor.
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// similarNames picks registered names sharing a prefix or substring with target.
func similarNames(target string, available []string) []string {
	if target == "" || len(available) == 0 {
		return nil
	}

	lower := strings.ToLower(target)
	var similar []string
	for _, name := range available {
		candidate := strings.ToLower(name)
		if candidate == lower {
			continue
		}
		if strings.Contains(candidate, lower) || strings.Contains(lower, candidate) {
			similar = append(similar, name)
		}
	}
	sort.Strings(similar)
	if len(similar) > 5 {
		similar = similar[:5]
	}
	return similar
}
