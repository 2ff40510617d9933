package graph

import (
	"sort"
	"strings"
)

// Node is one service in a dependency tree. Its children are the services
// it depends on, each expanded in full.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
}

// NewNode returns a node adopting children.
func NewNode(name string, children ...*Node) *Node {
	n := &Node{Name: name}
	for _, child := range children {
		n.AddChild(child)
	}
	return n
}

// AddChild appends child and points it back at n.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// ChildCount returns the number of direct dependencies.
func (n *Node) ChildCount() int {
	return len(n.Children)
}

// Depth returns the length of the longest chain below n.
func (n *Node) Depth() int {
	depth := 0
	for _, child := range n.Children {
		if d := child.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// Walk visits n and its descendants depth-first, passing each node's level.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, level int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, level int) {
	if !fn(n, level) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, level+1)
	}
}

// String renders the node as (a) or (a, [(b), (c)]).
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString("(")
	b.WriteString(n.Name)
	if len(n.Children) > 0 {
		b.WriteString(", [")
		for i, child := range n.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			child.write(b)
		}
		b.WriteString("]")
	}
	b.WriteString(")")
}

// Tree holds one head per service name, each with its full expansion.
type Tree struct {
	Heads []*Node
}

// NewTree returns a tree over heads.
func NewTree(heads ...*Node) *Tree {
	return &Tree{Heads: heads}
}

// AddHead appends a head node.
func (t *Tree) AddHead(head *Node) {
	t.Heads = append(t.Heads, head)
}

// HeadCount returns the number of heads.
func (t *Tree) HeadCount() int {
	return len(t.Heads)
}

// HeadNames returns the names of the heads in ascending order.
func (t *Tree) HeadNames() []string {
	names := make([]string, len(t.Heads))
	for i, head := range t.Heads {
		names[i] = head.Name
	}
	sort.Strings(names)
	return names
}

// Head returns the head named name, or nil.
func (t *Tree) Head(name string) *Node {
	for _, head := range t.Heads {
		if head.Name == name {
			return head
		}
	}
	return nil
}

// String renders the tree as H(a), H(b, [(c)]).
func (t *Tree) String() string {
	parts := make([]string, len(t.Heads))
	for i, head := range t.Heads {
		parts[i] = "H" + head.String()
	}
	return strings.Join(parts, ", ")
}
