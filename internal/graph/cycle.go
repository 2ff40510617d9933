package graph

import "slices"

// DetectCycles expands every name in nodes into a tree of its dependencies
// and fails on the first chain that revisits a name already on it.
//
// Every name becomes its own head, not only the true roots, and expansion is
// not memoized: a name reachable over several paths is expanded once per path.
// Heads and children are visited in ascending name order.
func DetectCycles(nodes Nodes) (*Tree, error) {
	tree := NewTree()
	for _, name := range nodes.Names() {
		head, err := expand(nodes, name, nil, Set{})
		if err != nil {
			return nil, err
		}
		tree.AddHead(head)
	}
	return tree, nil
}

// expand builds the node for name. onPath holds whole names, never fragments.
func expand(nodes Nodes, name string, path []string, onPath Set) (*Node, error) {
	path = append(path, name)
	onPath.Add(name)
	defer delete(onPath, name)

	node := NewNode(name)
	for _, dep := range nodes[name].Sorted() {
		if onPath.Has(dep) {
			return nil, CircularDependencyError{Path: append(slices.Clone(path), dep)}
		}
		if _, ok := nodes[dep]; !ok {
			return nil, MissingDependencyError{Service: name, Dependency: dep}
		}

		child, err := expand(nodes, dep, path, onPath)
		if err != nil {
			return nil, err
		}
		node.AddChild(child)
	}
	return node, nil
}
