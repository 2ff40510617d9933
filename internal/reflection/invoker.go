package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"slices"
	"sort"
)

// Kwargs receives keyword arguments that match no named parameter when it is
// the last parameter of a function.
type Kwargs map[string]any

var (
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	kwargsType = reflect.TypeOf(Kwargs(nil))
)

// Signature names the positional parameters of a function so keyword
// arguments can be bound to them. Defaults fill named parameters that were
// bound neither by position nor by keyword.
type Signature struct {
	Params   []string
	Defaults map[string]any
}

// Callable is a function value plus the signature used to bind arguments to it.
type Callable struct {
	name string
	fn   reflect.Value
	sig  Signature
	info *funcInfo
}

// NewCallable validates fn and returns a Callable for it.
func NewCallable(name string, fn any, sig Signature) (*Callable, error) {
	if fn == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFunction)
	}
	return newCallable(name, reflect.ValueOf(fn), sig)
}

// Method looks up an exported method on receiver by name.
func Method(receiver any, method string, sig Signature) (*Callable, error) {
	if receiver == nil {
		return nil, &MethodNotFoundError{Method: method}
	}
	rv := reflect.ValueOf(receiver)
	m := rv.MethodByName(method)
	if !m.IsValid() {
		return nil, &MethodNotFoundError{Receiver: rv.Type(), Method: method}
	}
	return newCallable(fmt.Sprintf("%v.%s", rv.Type(), method), m, sig)
}

func newCallable(name string, fn reflect.Value, sig Signature) (*Callable, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFunction)
	}

	info := globalTypeCache.funcInfo(fn.Type())
	if !info.ValidReturns {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidReturns)
	}
	if len(sig.Params) > info.Fixed {
		return nil, fmt.Errorf("%s: %w (%d names, %d parameters)", name, ErrTooManyParams, len(sig.Params), info.Fixed)
	}

	return &Callable{name: name, fn: fn, sig: sig, info: info}, nil
}

// Name returns the name used in error messages.
func (c *Callable) Name() string {
	return c.name
}

// Func returns the underlying function value.
func (c *Callable) Func() any {
	return c.fn.Interface()
}

// Call binds args and kwargs to the function's parameters, calls it and
// returns its first non-error result. A non-nil error result is returned as
// the error; a panic is returned as *PanicError.
func (c *Callable) Call(args []any, kwargs map[string]any) (any, error) {
	in, err := c.bind(args, kwargs)
	if err != nil {
		return nil, err
	}

	out, err := c.invoke(in)
	if err != nil {
		return nil, err
	}

	return unpack(out)
}

func (c *Callable) bind(args []any, kwargs map[string]any) ([]reflect.Value, error) {
	info := c.info
	in := make([]reflect.Value, info.Fixed)
	bound := make([]bool, info.Fixed)

	var variadic []reflect.Value
	for i, arg := range args {
		if i < info.Fixed {
			v, err := Coerce(arg, info.InTypes[i])
			if err != nil {
				return nil, c.argError(i, err)
			}
			in[i] = v
			bound[i] = true
			continue
		}

		if !info.IsVariadic {
			return nil, &ArgumentError{
				Function: c.name,
				Position: -1,
				Cause:    fmt.Errorf("%w: takes %d positional arguments but %d were given", ErrArgumentCount, info.Fixed, len(args)),
			}
		}
		v, err := Coerce(arg, info.VariadicElem)
		if err != nil {
			return nil, c.argError(i, err)
		}
		variadic = append(variadic, v)
	}

	extra := Kwargs{}
	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		idx := slices.Index(c.sig.Params, key)
		if idx < 0 {
			if info.HasKwargs {
				extra[key] = kwargs[key]
				continue
			}
			return nil, &ArgumentError{Function: c.name, Param: key, Position: -1, Cause: ErrUnexpectedKwarg}
		}
		if bound[idx] {
			return nil, &ArgumentError{Function: c.name, Param: key, Position: idx, Cause: ErrDuplicateArg}
		}
		v, err := Coerce(kwargs[key], info.InTypes[idx])
		if err != nil {
			return nil, c.argError(idx, err)
		}
		in[idx] = v
		bound[idx] = true
	}

	for i := range info.Fixed {
		if bound[i] {
			continue
		}
		name := c.paramName(i)
		def, ok := c.sig.Defaults[name]
		if name == "" || !ok {
			return nil, c.argError(i, ErrMissingArgument)
		}
		v, err := Coerce(def, info.InTypes[i])
		if err != nil {
			return nil, c.argError(i, err)
		}
		in[i] = v
	}

	if info.HasKwargs {
		in = append(in, reflect.ValueOf(extra))
	}
	return append(in, variadic...), nil
}

func (c *Callable) invoke(in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Function: c.name, Value: r, Stack: debug.Stack()}
		}
	}()

	return c.fn.Call(in), nil
}

func unpack(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	if last.Type() == errType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, nil
		}
	}

	return out[0].Interface(), nil
}

func (c *Callable) paramName(i int) string {
	if i < len(c.sig.Params) {
		return c.sig.Params[i]
	}
	return ""
}

func (c *Callable) argError(i int, cause error) error {
	return &ArgumentError{Function: c.name, Param: c.paramName(i), Position: i, Cause: cause}
}
