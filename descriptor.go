package chassis

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Descriptor field names as they appear in configuration documents.
const (
	FieldModule        = "module"
	FieldClass         = "class"
	FieldArgs          = "args"
	FieldKwargs        = "kwargs"
	FieldFactoryMethod = "factory-method"
	FieldFactoryArgs   = "factory-args"
	FieldFactoryKwargs = "factory-kwargs"
	FieldStatic        = "static"
	FieldCalls         = "calls"
	FieldMethod        = "method"
)

// Descriptor is the recipe for one named service.
type Descriptor struct {
	// Module and Class name a constructor in the Catalog.
	Module string
	Class  string

	// Args and Kwargs are passed to the constructor. They are the only
	// arguments whose @references order instantiation.
	Args   Seq
	Kwargs Map

	// FactoryMethod, when set, is called on the constructed object and its
	// result replaces it. Its arguments only see scalars.
	FactoryMethod string
	FactoryArgs   Seq
	FactoryKwargs Map

	// Static returns the module (no Class) or the constructor itself
	// instead of instantiating anything.
	Static bool

	// Calls are made in order on the effective object after construction.
	Calls []Call
}

// Call is a method invoked on a service after construction; its result is
// discarded and its arguments only see scalars.
type Call struct {
	Method string
	Args   Seq
	Kwargs Map
}

// Config maps service names to descriptors.
type Config map[string]Descriptor

// Names returns the service names in ascending order.
func (c Config) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// DecodeConfig decodes a mapping of service name to raw descriptor, as
// produced by a YAML or HCL loader.
func DecodeConfig(raw map[string]any) (Config, error) {
	cfg := make(Config, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		fields, ok := asMapping(raw[name])
		if !ok {
			return nil, InvalidConfigurationError{
				Service: name,
				Cause:   fmt.Errorf("descriptor must be a mapping, got %T", raw[name]),
			}
		}

		d, err := DecodeDescriptor(fields)
		if err != nil {
			var cfgErr InvalidConfigurationError
			if errors.As(err, &cfgErr) {
				cfgErr.Service = name
				return nil, cfgErr
			}
			return nil, err
		}
		cfg[name] = d
	}
	return cfg, nil
}

// DecodeDescriptor decodes one descriptor, applying the documented defaults
// for absent fields: no args, no kwargs, not static, no calls. Unknown
// fields are ignored. Shape errors are InvalidConfigurationError; a missing
// module or class is left for the factory to report.
func DecodeDescriptor(raw map[string]any) (Descriptor, error) {
	var d Descriptor
	var err error

	if d.Module, err = optionalString(raw, FieldModule); err != nil {
		return Descriptor{}, err
	}
	if d.Class, err = optionalString(raw, FieldClass); err != nil {
		return Descriptor{}, err
	}
	if d.Args, err = optionalSeq(raw, FieldArgs); err != nil {
		return Descriptor{}, err
	}
	if d.Kwargs, err = optionalMap(raw, FieldKwargs); err != nil {
		return Descriptor{}, err
	}
	if d.FactoryMethod, err = optionalString(raw, FieldFactoryMethod); err != nil {
		return Descriptor{}, err
	}
	if d.FactoryArgs, err = optionalSeq(raw, FieldFactoryArgs); err != nil {
		return Descriptor{}, err
	}
	if d.FactoryKwargs, err = optionalMap(raw, FieldFactoryKwargs); err != nil {
		return Descriptor{}, err
	}

	if v, ok := raw[FieldStatic]; ok && v != nil {
		static, ok := v.(bool)
		if !ok {
			return Descriptor{}, InvalidConfigurationError{
				Field: FieldStatic,
				Cause: fmt.Errorf("must be a boolean, got %T", v),
			}
		}
		d.Static = static
	}

	if d.Calls, err = decodeCalls(raw[FieldCalls]); err != nil {
		return Descriptor{}, err
	}

	return d, nil
}

func decodeCalls(v any) ([]Call, error) {
	if v == nil {
		return nil, nil
	}

	items, ok := asSequence(v)
	if !ok {
		return nil, InvalidConfigurationError{
			Field: FieldCalls,
			Cause: fmt.Errorf("must be a sequence, got %T", v),
		}
	}

	calls := make([]Call, 0, len(items))
	for i, item := range items {
		fields, ok := asMapping(item)
		if !ok {
			return nil, InvalidConfigurationError{
				Field: fmt.Sprintf("%s[%d]", FieldCalls, i),
				Cause: fmt.Errorf("must be a mapping, got %T", item),
			}
		}

		var c Call
		var err error
		if c.Method, err = optionalString(fields, FieldMethod); err != nil {
			return nil, callFieldError(i, err)
		}
		if c.Args, err = optionalSeq(fields, FieldArgs); err != nil {
			return nil, callFieldError(i, err)
		}
		if c.Kwargs, err = optionalMap(fields, FieldKwargs); err != nil {
			return nil, callFieldError(i, err)
		}
		calls = append(calls, c)
	}
	return calls, nil
}

func callFieldError(i int, err error) error {
	var cfgErr InvalidConfigurationError
	if errors.As(err, &cfgErr) {
		cfgErr.Field = fmt.Sprintf("%s[%d].%s", FieldCalls, i, cfgErr.Field)
		return cfgErr
	}
	return err
}

func optionalString(raw map[string]any, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", InvalidConfigurationError{Field: field, Cause: fmt.Errorf("must be a string, got %T", v)}
	}
	return s, nil
}

func optionalSeq(raw map[string]any, field string) (Seq, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return Seq{}, nil
	}
	items, ok := asSequence(v)
	if !ok {
		return nil, InvalidConfigurationError{Field: field, Cause: fmt.Errorf("must be a sequence, got %T", v)}
	}
	return parseSeq(items), nil
}

func optionalMap(raw map[string]any, field string) (Map, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return Map{}, nil
	}
	fields, ok := asMapping(v)
	if !ok {
		return nil, InvalidConfigurationError{Field: field, Cause: fmt.Errorf("must be a mapping, got %T", v)}
	}
	return parseMap(fields), nil
}

// asSequence accepts any slice or array except byte slices.
func asSequence(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range rv.Len() {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// asMapping accepts any map keyed by strings.
func asMapping(v any) (map[string]any, bool) {
	if fields, ok := v.(map[string]any); ok {
		return fields, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	fields := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		fields[iter.Key().String()] = iter.Value().Interface()
	}
	return fields, true
}
