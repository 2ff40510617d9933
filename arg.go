package chassis

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Arg is one node of an argument tree: a Literal, a ScalarRef, a
// ServiceRef, a Seq or a Map. References only occur as leaves; containers
// are walked but never treated as references themselves.
type Arg interface {
	isArg()
	String() string
}

// Literal is a value passed through unchanged.
type Literal struct {
	Value any
}

// ScalarRef names an entry of the scalar table, without the sigil.
type ScalarRef string

// ServiceRef names an instantiated service, without the sigil.
type ServiceRef string

// Seq is an ordered sequence of arguments.
type Seq []Arg

// Map is a keyed mapping of arguments.
type Map map[string]Arg

func (Literal) isArg()    {}
func (ScalarRef) isArg()  {}
func (ServiceRef) isArg() {}
func (Seq) isArg()        {}
func (Map) isArg()        {}

func (l Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

func (r ScalarRef) String() string  { return ScalarSigil + string(r) }
func (r ServiceRef) String() string { return ServiceSigil + string(r) }

func (s Seq) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (m Map) String() string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseArg turns a decoded config value into an argument tree. Strings
// carrying a sigil become references; slices and string-keyed maps are
// walked recursively; everything else is a Literal.
func ParseArg(v any) Arg {
	switch t := v.(type) {
	case Arg:
		return t
	case string:
		switch {
		case IsScalarRef(t):
			return ScalarRef(strings.TrimPrefix(t, ScalarSigil))
		case IsServiceRef(t):
			return ServiceRef(strings.TrimPrefix(t, ServiceSigil))
		}
		return Literal{Value: t}
	case []any:
		return parseSeq(t)
	case map[string]any:
		return parseMap(t)
	case nil:
		return Literal{}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		seq := make(Seq, rv.Len())
		for i := range rv.Len() {
			seq[i] = ParseArg(rv.Index(i).Interface())
		}
		return seq
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = ParseArg(iter.Value().Interface())
		}
		return m
	}
	return Literal{Value: v}
}

func parseSeq(values []any) Seq {
	seq := make(Seq, len(values))
	for i, v := range values {
		seq[i] = ParseArg(v)
	}
	return seq
}

func parseMap(values map[string]any) Map {
	m := make(Map, len(values))
	for k, v := range values {
		m[k] = ParseArg(v)
	}
	return m
}

// Value converts an argument tree back into plain Go values: []any for a
// Seq, map[string]any for a Map. A reference that was never substituted
// comes back as its marker string.
func Value(a Arg) any {
	switch t := a.(type) {
	case Literal:
		return t.Value
	case ScalarRef:
		return t.String()
	case ServiceRef:
		return t.String()
	case Seq:
		return t.Values()
	case Map:
		return t.Values()
	}
	return nil
}

// Values converts every element with Value.
func (s Seq) Values() []any {
	out := make([]any, len(s))
	for i, a := range s {
		out[i] = Value(a)
	}
	return out
}

// Values converts every entry with Value.
func (m Map) Values() map[string]any {
	out := make(map[string]any, len(m))
	for k, a := range m {
		out[k] = Value(a)
	}
	return out
}

// ServiceRefs returns the names of every service referenced in the tree.
func ServiceRefs(a Arg) []string {
	var names []string
	walk(a, func(leaf Arg) {
		if ref, ok := leaf.(ServiceRef); ok {
			names = append(names, string(ref))
		}
	})
	return names
}

// ScalarRefs returns the names of every scalar referenced in the tree.
func ScalarRefs(a Arg) []string {
	var names []string
	walk(a, func(leaf Arg) {
		if ref, ok := leaf.(ScalarRef); ok {
			names = append(names, string(ref))
		}
	})
	return names
}

func walk(a Arg, fn func(leaf Arg)) {
	switch t := a.(type) {
	case Seq:
		for _, elem := range t {
			walk(elem, fn)
		}
	case Map:
		for _, elem := range t {
			walk(elem, fn)
		}
	case nil:
	default:
		fn(t)
	}
}
