package reflection

import (
	"fmt"
	"math"
	"reflect"
)

// Coerce converts a config value into a value of type t. Values assignable to
// t pass through unchanged; numbers convert between kinds when no information
// is lost; slices and maps are converted element by element.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if nilable(t.Kind()) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &ConversionError{Value: v, Target: t}
	}
	return coerce(reflect.ValueOf(v), t)
}

func coerce(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Coerce(nil, t)
		}
		rv = rv.Elem()
	}

	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface && rv.Type() != t {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}

	switch {
	case isNumber(rv.Kind()) && isNumber(t.Kind()):
		return convertNumber(rv, t)

	case rv.Kind() == reflect.String && t.Kind() == reflect.String,
		rv.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return rv.Convert(t), nil

	case t.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := range rv.Len() {
			elem, err := coerce(rv.Index(i), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case t.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := coerce(iter.Key(), t.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			val, err := coerce(iter.Value(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(key, val)
		}
		return out, nil
	}

	return reflect.Value{}, &ConversionError{Value: rv.Interface(), Target: t}
}

func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case isInt(t.Kind()):
		n, ok := asInt64(rv)
		if !ok || reflect.Zero(t).OverflowInt(n) {
			return reflect.Value{}, &ConversionError{Value: rv.Interface(), Target: t, Reason: "out of range or not integral"}
		}
		return reflect.ValueOf(n).Convert(t), nil

	case isUint(t.Kind()):
		n, ok := asUint64(rv)
		if !ok || reflect.Zero(t).OverflowUint(n) {
			return reflect.Value{}, &ConversionError{Value: rv.Interface(), Target: t, Reason: "out of range or not integral"}
		}
		return reflect.ValueOf(n).Convert(t), nil
	}

	return rv.Convert(t), nil
}

func asInt64(rv reflect.Value) (int64, bool) {
	switch {
	case isInt(rv.Kind()):
		return rv.Int(), true
	case isUint(rv.Kind()):
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	default:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
}

func asUint64(rv reflect.Value) (uint64, bool) {
	switch {
	case isInt(rv.Kind()):
		n := rv.Int()
		return uint64(n), n >= 0
	case isUint(rv.Kind()):
		return rv.Uint(), true
	default:
		f := rv.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}
