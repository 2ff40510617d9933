package graph

// Levels peels the graph round by round without building anything: each
// round holds, sorted, every name whose remaining dependencies are empty.
// It fails with UnsatisfiableDependencyError when a round comes up empty.
func Levels(nodes Nodes) ([][]string, error) {
	work := nodes.Clone()
	var levels [][]string

	for len(work) > 0 {
		ready := work.Roots()
		if len(ready) == 0 {
			return nil, Unsatisfiable(work)
		}

		work.Peel(ready)
		levels = append(levels, ready)
	}

	return levels, nil
}

// Peel removes the named nodes and drops them from every remaining set.
func (n Nodes) Peel(names []string) {
	for _, name := range names {
		delete(n, name)
	}
	for _, deps := range n {
		for _, name := range names {
			delete(deps, name)
		}
	}
}

// Unsatisfiable describes the stuck state of nodes.
func Unsatisfiable(nodes Nodes) UnsatisfiableDependencyError {
	remaining := make(map[string][]string, len(nodes))
	for name, deps := range nodes {
		remaining[name] = deps.Sorted()
	}
	return UnsatisfiableDependencyError{Remaining: remaining}
}
