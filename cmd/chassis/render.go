package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/refinery29/chassis"
)

var (
	rootStyle       = lipgloss.NewStyle().Bold(true)
	headStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	enumeratorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginRight(1)
)

// renderTree draws one branch per service, each expanded down to the
// services with no dependencies.
func renderTree(dt *chassis.DependencyTree) string {
	root := tree.Root("services").
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle).
		RootStyle(rootStyle).
		ItemStyle(headStyle)

	for _, name := range dt.HeadNames() {
		root.Child(branch(dt.Head(name)))
	}
	return root.String()
}

func branch(node *chassis.DependencyNode) any {
	if len(node.Children) == 0 {
		return node.Name
	}
	t := tree.Root(node.Name).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, child := range node.Children {
		t.Child(branch(child))
	}
	return t
}
