package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNotFunction     = errors.New("value is not a function")
	ErrInvalidReturns  = errors.New("function must return (T), (T, error) or (error)")
	ErrTooManyParams   = errors.New("more parameter names than parameters")
	ErrArgumentCount   = errors.New("wrong number of arguments")
	ErrMissingArgument = errors.New("missing argument")
	ErrUnexpectedKwarg = errors.New("unexpected keyword argument")
	ErrDuplicateArg    = errors.New("multiple values for argument")
	ErrMethodNotFound  = errors.New("method not found")
	ErrConversion      = errors.New("cannot convert value")
)

// ArgumentError reports a problem binding one argument of a call.
type ArgumentError struct {
	Function string
	Param    string // empty when the parameter has no registered name
	Position int    // -1 for keyword-only problems
	Cause    error
}

func (e *ArgumentError) Error() string {
	var b strings.Builder
	b.WriteString(e.Function)
	b.WriteString(": ")
	switch {
	case e.Param != "":
		fmt.Fprintf(&b, "argument %q", e.Param)
	case e.Position >= 0:
		fmt.Fprintf(&b, "argument %d", e.Position)
	default:
		b.WriteString("arguments")
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	return b.String()
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// ConversionError indicates a config value cannot be used as a parameter type.
type ConversionError struct {
	Value  any
	Target reflect.Type
	Reason string
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot use %v (%T) as %s", e.Value, e.Value, e.Target)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// MethodNotFoundError indicates a receiver has no exported method of the given name.
type MethodNotFoundError struct {
	Receiver reflect.Type
	Method   string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("%v has no method %s", e.Receiver, e.Method)
}

func (e *MethodNotFoundError) Is(target error) bool {
	return target == ErrMethodNotFound
}

// PanicError captures a panic raised by user code during a call.
type PanicError struct {
	Function string
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Function, e.Value)
}
