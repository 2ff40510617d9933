// Package graph holds the name-keyed dependency graph behind the resolver:
// dependency sets, the cycle detector with its diagnostic tree, the
// leaf-peeling plan and the text/DOT visualizers.
package graph

import (
	"maps"
	"slices"
	"sort"
)

// Set is a set of service names.
type Set map[string]struct{}

// NewSet returns a set holding names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every name of other to s.
func (s Set) Union(other Set) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Sorted returns the names in ascending order.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	return maps.Clone(s)
}

// Equal reports whether both sets hold the same names.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Has(name) {
			return false
		}
	}
	return true
}

// Nodes maps every service name to the set of service names its constructor
// arguments reference.
type Nodes map[string]Set

// Clone returns a deep copy, so the copy's sets can be shrunk in place.
func (n Nodes) Clone() Nodes {
	out := make(Nodes, len(n))
	for name, deps := range n {
		out[name] = deps.Clone()
	}
	return out
}

// Names returns the service names in ascending order.
func (n Nodes) Names() []string {
	return slices.Sorted(maps.Keys(n))
}

// Dependencies returns the sorted dependency names of name.
func (n Nodes) Dependencies(name string) []string {
	return n[name].Sorted()
}

// Dependents returns the sorted names of the services that depend on name.
func (n Nodes) Dependents(name string) []string {
	var out []string
	for other, deps := range n {
		if deps.Has(name) {
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}

// Edges counts dependency edges across all nodes.
func (n Nodes) Edges() int {
	count := 0
	for _, deps := range n {
		count += len(deps)
	}
	return count
}

// Roots returns the names with no dependencies; they are ready in the first round.
func (n Nodes) Roots() []string {
	var out []string
	for name, deps := range n {
		if len(deps) == 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Leaves returns the names nothing depends on.
func (n Nodes) Leaves() []string {
	referenced := Set{}
	for _, deps := range n {
		referenced.Union(deps)
	}

	var out []string
	for name := range n {
		if !referenced.Has(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Missing returns, per service, the dependency names with no entry of their own.
func (n Nodes) Missing() map[string][]string {
	out := make(map[string][]string)
	for name, deps := range n {
		for dep := range deps {
			if _, ok := n[dep]; !ok {
				out[name] = append(out[name], dep)
			}
		}
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}
