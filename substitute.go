package chassis

// Scalars is the table $name references are resolved against.
type Scalars map[string]any

// ServiceLookup finds an instantiated service by name. *Registry implements it.
type ServiceLookup interface {
	Get(name string) (any, error)
}

// SubstituteScalars returns a copy of a with every ScalarRef replaced by a
// Literal holding the scalar's value. The value is never parsed again, so a
// scalar whose value looks like "@name" stays a plain string.
func SubstituteScalars(a Arg, scalars Scalars) (Arg, error) {
	return substitute(a, func(leaf Arg) (Arg, error) {
		ref, ok := leaf.(ScalarRef)
		if !ok {
			return leaf, nil
		}
		v, ok := scalars[string(ref)]
		if !ok {
			return nil, UnresolvedReferenceError{Name: string(ref)}
		}
		return Literal{Value: v}, nil
	})
}

// SubstituteServices returns a copy of a with every ServiceRef replaced by
// a Literal holding the instantiated service.
func SubstituteServices(a Arg, services ServiceLookup) (Arg, error) {
	return substitute(a, func(leaf Arg) (Arg, error) {
		ref, ok := leaf.(ServiceRef)
		if !ok {
			return leaf, nil
		}
		svc, err := services.Get(string(ref))
		if err != nil {
			return nil, err
		}
		return Literal{Value: svc}, nil
	})
}

func substitute(a Arg, leaf func(Arg) (Arg, error)) (Arg, error) {
	switch t := a.(type) {
	case Seq:
		out := make(Seq, len(t))
		for i, elem := range t {
			v, err := substitute(elem, leaf)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case Map:
		out := make(Map, len(t))
		for k, elem := range t {
			v, err := substitute(elem, leaf)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case nil:
		return nil, nil
	}

	return leaf(a)
}

// resolveArgs runs the scalar pass and then, when services is non-nil, the
// service pass over a positional and a keyword tree.
func resolveArgs(args Seq, kwargs Map, scalars Scalars, services ServiceLookup) ([]any, map[string]any, error) {
	a, err := SubstituteScalars(args, scalars)
	if err != nil {
		return nil, nil, err
	}
	kw, err := SubstituteScalars(kwargs, scalars)
	if err != nil {
		return nil, nil, err
	}

	if services != nil {
		if a, err = SubstituteServices(a, services); err != nil {
			return nil, nil, err
		}
		if kw, err = SubstituteServices(kw, services); err != nil {
			return nil, nil, err
		}
	}

	return valuesOf(a), kwValuesOf(kw), nil
}

func valuesOf(a Arg) []any {
	if seq, ok := a.(Seq); ok {
		return seq.Values()
	}
	return nil
}

func kwValuesOf(a Arg) map[string]any {
	if m, ok := a.(Map); ok {
		return m.Values()
	}
	return nil
}
