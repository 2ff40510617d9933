package chassis

import "github.com/refinery29/chassis/internal/graph"

type (
	// DependencySet is the set of service names one service depends on.
	DependencySet = graph.Set

	// Nodes maps every service name to its dependency set.
	Nodes = graph.Nodes

	// DependencyNode is one service in a dependency tree.
	DependencyNode = graph.Node

	// DependencyTree holds one fully expanded head per service name.
	DependencyTree = graph.Tree
)

// NewSet returns a dependency set holding names.
func NewSet(names ...string) DependencySet {
	return graph.NewSet(names...)
}

// Dependencies returns the services referenced anywhere in d's constructor
// args and kwargs. Factory arguments and calls are not scanned: they never
// see services, so they must not order instantiation.
func Dependencies(d Descriptor) DependencySet {
	deps := graph.NewSet(ServiceRefs(d.Args)...)
	for _, name := range ServiceRefs(d.Kwargs) {
		deps.Add(name)
	}
	return deps
}

// BuildNodes computes the dependency set of every service in cfg.
func BuildNodes(cfg Config) Nodes {
	nodes := make(Nodes, len(cfg))
	for name, d := range cfg {
		nodes[name] = Dependencies(d)
	}
	return nodes
}

// DetectCycles expands every service into a tree of its dependencies and
// fails with CircularDependencyError on the first chain that loops, or with
// MissingDependencyError when a dependency is not configured.
func DetectCycles(nodes Nodes) (*DependencyTree, error) {
	return graph.DetectCycles(nodes)
}

// Plan returns the instantiation rounds for nodes without building
// anything. Names within a round are sorted.
func Plan(nodes Nodes) ([][]string, error) {
	return graph.Levels(nodes)
}
