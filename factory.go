package chassis

import (
	"fmt"

	"go.uber.org/zap"
)

// ServiceFactory builds one service from its descriptor.
type ServiceFactory struct {
	catalog *Catalog
	scalars Scalars
	logger  *zap.Logger
}

// NewServiceFactory returns a factory resolving classes in catalog and
// $references in scalars.
func NewServiceFactory(catalog *Catalog, scalars Scalars, logger *zap.Logger) *ServiceFactory {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceFactory{catalog: catalog, scalars: scalars, logger: logger}
}

// Create builds the service named name.
//
// Static descriptors skip the constructor: without a class the service is
// the module, with one it is the class constructor, and any factory method
// or call runs on the module or on a zero value of the class's built type.
// Otherwise the constructor receives args and kwargs with scalars
// substituted first and services second. Then the factory method, if any,
// replaces the object with its result, and every call is made in order.
// Factory and call arguments only see scalars.
func (f *ServiceFactory) Create(name string, d Descriptor, services ServiceLookup) (any, error) {
	if err := validateDescriptor(name, d); err != nil {
		return nil, err
	}

	obj, target, err := f.build(name, d, services)
	if err != nil {
		return nil, err
	}

	if d.FactoryMethod != "" {
		obj, err = f.invoke(name, target, StageFactoryMethod, d.FactoryMethod, d.FactoryArgs, d.FactoryKwargs)
		if err != nil {
			return nil, err
		}
		target = obj
	}

	for _, call := range d.Calls {
		if _, err := f.invoke(name, target, StageCall, call.Method, call.Args, call.Kwargs); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

// build returns the service before its factory method and calls, and the
// receiver those run on. The two differ only for a static class.
func (f *ServiceFactory) build(name string, d Descriptor, services ServiceLookup) (obj, target any, err error) {
	if d.Static && d.Class == "" {
		m, ok := f.catalog.Module(d.Module)
		if !ok {
			return nil, nil, ImportResolutionError{Service: name, Module: d.Module}
		}
		return m, m, nil
	}

	class, err := f.catalog.Lookup(d.Module, d.Class)
	if err != nil {
		if importErr, ok := err.(ImportResolutionError); ok {
			importErr.Service = name
			return nil, nil, importErr
		}
		return nil, nil, err
	}

	if d.Static {
		return class.Constructor(), class.Zero(), nil
	}

	args, kwargs, err := resolveArgs(d.Args, d.Kwargs, f.scalars, services)
	if err != nil {
		return nil, nil, fmt.Errorf("service %q: %w", name, err)
	}

	obj, err = class.New(args, kwargs)
	if err != nil {
		return nil, nil, ConstructionError{Service: name, Stage: StageConstructor, Cause: err}
	}
	return obj, obj, nil
}

// invoke calls method on obj with scalar-substituted arguments.
func (f *ServiceFactory) invoke(name string, obj any, stage, method string, args Seq, kwargs Map) (any, error) {
	a, kw, err := resolveArgs(args, kwargs, f.scalars, nil)
	if err != nil {
		return nil, fmt.Errorf("service %q: %s %s: %w", name, stage, method, err)
	}

	fn, err := f.catalog.Method(obj, method)
	if err != nil {
		return nil, ConstructionError{Service: name, Stage: stage, Method: method, Cause: err}
	}

	f.logger.Debug("invoking method",
		zap.String("service", name),
		zap.String("stage", stage),
		zap.String("method", method))

	result, err := fn.Call(a, kw)
	if err != nil {
		return nil, ConstructionError{Service: name, Stage: stage, Method: method, Cause: err}
	}
	return result, nil
}

func validateDescriptor(name string, d Descriptor) error {
	if d.Module == "" {
		return InvalidDescriptorError{Service: name, Reason: "module is required"}
	}
	if !d.Static && d.Class == "" {
		return InvalidDescriptorError{Service: name, Reason: "class is required unless static"}
	}
	for i, call := range d.Calls {
		if call.Method == "" {
			return InvalidDescriptorError{Service: name, Reason: fmt.Sprintf("calls[%d] has no method", i)}
		}
	}
	return nil
}
