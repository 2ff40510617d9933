package chassis

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/refinery29/chassis/internal/reflection"
)

// Kwargs, as the last parameter of a constructor or method, receives the
// keyword arguments that match no registered parameter name.
type Kwargs = reflection.Kwargs

// Catalog holds the constructible types descriptors can name, indexed by
// module and class. It is safe for concurrent use and is normally filled
// once at program start and shared by every resolver.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]*Module)}
}

// Register adds a constructor as module.class, creating the module on first use.
func (c *Catalog) Register(module, class string, constructor any, opts ...ClassOption) error {
	return c.module(module).Register(class, constructor, opts...)
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(module, class string, constructor any, opts ...ClassOption) {
	if err := c.Register(module, class, constructor, opts...); err != nil {
		panic(err)
	}
}

// AddModule adds a prepared module. A module of the same name must not exist.
func (c *Catalog) AddModule(m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.modules[m.name]; exists {
		return AlreadyRegisteredError{Name: m.name}
	}
	c.modules[m.name] = m
	return nil
}

// Module returns the module registered under name.
func (c *Catalog) Module(name string) (*Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.modules[name]
	return m, ok
}

// Modules returns the module names in ascending order.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.modules))
}

// Lookup finds module.class, failing with ImportResolutionError.
func (c *Catalog) Lookup(module, class string) (*Class, error) {
	m, ok := c.Module(module)
	if !ok {
		return nil, ImportResolutionError{Module: module}
	}
	cls, ok := m.Class(class)
	if !ok {
		return nil, ImportResolutionError{Module: module, Class: class}
	}
	return cls, nil
}

// Method binds the named method of receiver. Parameter names come from the
// MethodParams of the class that builds receiver's type, so a factory
// method result binds against its own class rather than the one that made it.
func (c *Catalog) Method(receiver any, name string) (*reflection.Callable, error) {
	return reflection.Method(receiver, name, reflection.Signature{
		Params: c.methodParams(reflect.TypeOf(receiver), name),
	})
}

// methodParams searches modules in name order; the first class registered
// for t with names for method wins.
func (c *Catalog) methodParams(t reflect.Type, method string) []string {
	if t == nil {
		return nil
	}
	for _, name := range c.Modules() {
		m, ok := c.Module(name)
		if !ok {
			continue
		}
		if params, ok := m.methodParams(t, method); ok {
			return params
		}
	}
	return nil
}

func (c *Catalog) module(name string) *Module {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.modules[name]
	if !ok {
		m = NewModule(name)
		c.modules[name] = m
	}
	return m
}

// Module is a named group of classes. A static descriptor without a class
// resolves to the *Module itself.
type Module struct {
	name    string
	mu      sync.RWMutex
	classes map[string]*Class
	methods map[reflect.Type]map[string][]string // built type -> method -> params
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{
		name:    name,
		classes: make(map[string]*Class),
		methods: make(map[reflect.Type]map[string][]string),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Register adds a constructor under class. The constructor may return
// (T), (T, error) or (error).
func (m *Module) Register(class string, constructor any, opts ...ClassOption) error {
	options := classOptions{methods: make(map[string][]string)}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&options)
		}
	}

	qualified := m.name + "." + class
	ctor, err := reflection.NewCallable(qualified, constructor, reflection.Signature{
		Params:   options.params,
		Defaults: options.defaults,
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", qualified, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.classes[class]; exists {
		return AlreadyRegisteredError{Name: qualified}
	}
	cls := &Class{
		name:    class,
		module:  m.name,
		ctor:    ctor,
		built:   builtType(reflect.TypeOf(constructor)),
		methods: options.methods,
	}
	m.classes[class] = cls

	if cls.built != nil && len(cls.methods) > 0 {
		index, ok := m.methods[cls.built]
		if !ok {
			index = make(map[string][]string, len(cls.methods))
			m.methods[cls.built] = index
		}
		for method, params := range cls.methods {
			if _, exists := index[method]; !exists {
				index[method] = params
			}
		}
	}
	return nil
}

func (m *Module) methodParams(t reflect.Type, method string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params, ok := m.methods[t][method]
	return params, ok
}

// builtType is the first result type of a constructor, or nil when it only
// returns an error.
func builtType(t reflect.Type) reflect.Type {
	if t.NumOut() == 0 || t.Out(0) == errorType {
		return nil
	}
	return t.Out(0)
}

// MustRegister is like Register but panics on error.
func (m *Module) MustRegister(class string, constructor any, opts ...ClassOption) *Module {
	if err := m.Register(class, constructor, opts...); err != nil {
		panic(err)
	}
	return m
}

// Class returns the class registered under name.
func (m *Module) Class(name string) (*Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cls, ok := m.classes[name]
	return cls, ok
}

// Classes returns the class names in ascending order.
func (m *Module) Classes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.classes))
}

// Class is a registered constructor plus the parameter names used to bind
// keyword arguments to it and to the methods of what it builds.
type Class struct {
	name    string
	module  string
	ctor    *reflection.Callable
	built   reflect.Type
	methods map[string][]string
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Module returns the name of the module holding the class.
func (c *Class) Module() string {
	return c.module
}

// Constructor returns the registered constructor function. A static
// descriptor with a class resolves to it.
func (c *Class) Constructor() any {
	return c.ctor.Func()
}

// New calls the constructor.
func (c *Class) New(args []any, kwargs map[string]any) (any, error) {
	return c.ctor.Call(args, kwargs)
}

// Type returns the type the constructor builds, or nil when it only
// returns an error.
func (c *Class) Type() reflect.Type {
	return c.built
}

// Zero returns a zero value of the built type without calling the
// constructor; a pointer type gets a pointer to a new zero value. Methods of
// a static class run on it.
func (c *Class) Zero() any {
	switch {
	case c.built == nil:
		return nil
	case c.built.Kind() == reflect.Pointer:
		return reflect.New(c.built.Elem()).Interface()
	default:
		return reflect.Zero(c.built).Interface()
	}
}

// Method binds the named method of receiver, using the parameter names
// registered on this class with MethodParams.
func (c *Class) Method(receiver any, name string) (*reflection.Callable, error) {
	return reflection.Method(receiver, name, reflection.Signature{Params: c.methods[name]})
}

// ClassOption configures a class registration.
type ClassOption interface {
	apply(*classOptions)
}

type classOptions struct {
	params   []string
	defaults map[string]any
	methods  map[string][]string
}

// classOptionFunc adapts a function to ClassOption.
type classOptionFunc func(*classOptions)

func (f classOptionFunc) apply(opts *classOptions) {
	f(opts)
}

// Params names the constructor parameters in order so kwargs can bind to them.
func Params(names ...string) ClassOption {
	return classOptionFunc(func(opts *classOptions) {
		opts.params = names
	})
}

// Defaults supplies values for named constructor parameters that receive
// no argument.
func Defaults(values map[string]any) ClassOption {
	return classOptionFunc(func(opts *classOptions) {
		if opts.defaults == nil {
			opts.defaults = make(map[string]any, len(values))
		}
		maps.Copy(opts.defaults, values)
	})
}

// MethodParams names the parameters of a method of the built object, for
// factory-kwargs and call kwargs.
func MethodParams(method string, names ...string) ClassOption {
	return classOptionFunc(func(opts *classOptions) {
		opts.methods[method] = names
	})
}
