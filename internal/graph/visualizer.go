package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the graph in Graphviz DOT format. Edges point from a
// service to the services it depends on.
func WriteDOT(w io.Writer, nodes Nodes) error {
	ew := &errWriter{w: w}

	ew.println("digraph dependencies {")
	ew.println("  rankdir=LR;")
	ew.println("  node [shape=box];")

	missing := nodes.Missing()
	for _, name := range nodes.Names() {
		ew.printf("  %q [label=%q, fillcolor=%q, style=filled];\n",
			name, nodeLabel(nodes, name), nodeColor(nodes, name, missing))
	}

	dangling := NewSet()
	for _, deps := range missing {
		for _, dep := range deps {
			dangling.Add(dep)
		}
	}
	for _, name := range dangling.Sorted() {
		ew.printf("  %q [label=%q, fillcolor=\"lightgray\", style=\"filled,dashed\"];\n", name, name)
	}

	for _, from := range nodes.Names() {
		for _, to := range nodes.Dependencies(from) {
			ew.printf("  %q -> %q;\n", from, to)
		}
	}

	ew.println("}")
	return ew.err
}

// WriteText writes the graph grouped by scheduling round, followed by
// statistics. A graph that cannot be fully scheduled lists the stuck
// services separately.
func WriteText(w io.Writer, nodes Nodes) error {
	ew := &errWriter{w: w}

	ew.println("Dependency Graph:")
	ew.println("=================")
	ew.println("")

	work := nodes.Clone()
	for round := 0; len(work) > 0; round++ {
		ready := work.Roots()
		if len(ready) == 0 {
			break
		}

		ew.printf("Round %d:\n", round)
		ew.println("--------")
		for _, name := range ready {
			writeNodeDetails(ew, nodes, name, "  ")
		}
		ew.println("")
		work.Peel(ready)
	}

	if len(work) > 0 {
		ew.println("Unschedulable:")
		ew.println("--------------")
		for _, name := range work.Names() {
			writeNodeDetails(ew, nodes, name, "  ")
		}
		ew.println("")
	}

	writeStatistics(ew, nodes, len(work) == 0)
	return ew.err
}

// WriteAdjacencyList writes one line per service: name -> [deps].
func WriteAdjacencyList(w io.Writer, nodes Nodes) error {
	ew := &errWriter{w: w}
	for _, name := range nodes.Names() {
		ew.printf("%s -> [%s]\n", name, strings.Join(nodes.Dependencies(name), ", "))
	}
	return ew.err
}

func nodeLabel(nodes Nodes, name string) string {
	return fmt.Sprintf("%s\nIn:%d Out:%d", name, len(nodes[name]), len(nodes.Dependents(name)))
}

func nodeColor(nodes Nodes, name string, missing map[string][]string) string {
	switch {
	case len(missing[name]) > 0:
		return "salmon"
	case len(nodes[name]) == 0:
		return "lightblue"
	default:
		return "white"
	}
}

func writeNodeDetails(ew *errWriter, nodes Nodes, name, indent string) {
	ew.printf("%s%s\n", indent, name)

	if deps := nodes.Dependencies(name); len(deps) > 0 {
		ew.printf("%s  Dependencies: [%s]\n", indent, strings.Join(deps, ", "))
	}
	if dependents := nodes.Dependents(name); len(dependents) > 0 {
		ew.printf("%s  Dependents: [%s]\n", indent, strings.Join(dependents, ", "))
	}
}

func writeStatistics(ew *errWriter, nodes Nodes, schedulable bool) {
	ew.println("Statistics:")
	ew.println("-----------")
	ew.printf("  Total nodes: %d\n", len(nodes))
	ew.printf("  Total edges: %d\n", nodes.Edges())
	ew.printf("  Root nodes (no dependencies): %d\n", len(nodes.Roots()))
	ew.printf("  Leaf nodes (no dependents): %d\n", len(nodes.Leaves()))

	if schedulable {
		ew.println("  Cycles: None (graph is acyclic)")
	} else {
		ew.println("  Cycles: DETECTED (or a dependency is not configured)")
	}

	maxDeps, maxDepsName := 0, ""
	maxDependents, maxDependentsName := 0, ""
	for _, name := range nodes.Names() {
		if n := len(nodes[name]); n > maxDeps {
			maxDeps, maxDepsName = n, name
		}
		if n := len(nodes.Dependents(name)); n > maxDependents {
			maxDependents, maxDependentsName = n, name
		}
	}

	if maxDepsName != "" {
		ew.printf("  Most dependencies: %s (%d)\n", maxDepsName, maxDeps)
	}
	if maxDependentsName != "" {
		ew.printf("  Most dependents: %s (%d)\n", maxDependentsName, maxDependents)
	}
}

// errWriter remembers the first write error so callers check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	ew.printf("%s\n", s)
}
