package p3d

import (
	"errors"
	"fmt"
)

var (
	// ErrHasParent is returned when attaching a node that already belongs to a tree.
	ErrHasParent = errors.New("p3d: node already has a parent")
	// ErrNotChild is returned when removing a node from something that is not its parent.
	ErrNotChild = errors.New("p3d: node is not a child")
)

// Node is one chunk of a P3D tree. The parent pointer is for navigation only;
// a node's children are owned by it exclusively.
type Node struct {
	payload  Payload
	parent   *Node
	children []*Node
}

// NewNode wraps a payload in a detached node.
func NewNode(p Payload, children ...*Node) *Node {
	n := &Node{payload: p}
	p.bind(n)
	for _, c := range children {
		// Fresh children only; a programming error otherwise.
		if err := n.Append(c); err != nil {
			panic(err)
		}
	}
	return n
}

// Kind returns the chunk id of the node's payload.
func (n *Node) Kind() Kind { return n.payload.Kind() }

// Payload returns the typed chunk data.
func (n *Node) Payload() Payload { return n.payload }

// Parent returns the containing node, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the ordered children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// Index returns the position of child c, or -1.
func (n *Node) Index(c *Node) int {
	for i, k := range n.children {
		if k == c {
			return i
		}
	}
	return -1
}

// Append attaches c as the last child.
func (n *Node) Append(c *Node) error {
	return n.Insert(len(n.children), c)
}

// Insert attaches c at position i, shifting later children.
func (n *Node) Insert(i int, c *Node) error {
	if c.parent != nil {
		return ErrHasParent
	}
	if i < 0 || i > len(n.children) {
		return fmt.Errorf("p3d: insert index %d out of range [0,%d]", i, len(n.children))
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
	return nil
}

// Remove detaches c from n.
func (n *Node) Remove(c *Node) error {
	i := n.Index(c)
	if i < 0 || c.parent != n {
		return ErrNotChild
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	c.parent = nil
	return nil
}

// ReplaceChildren swaps the whole child list. Every new child is checked
// before anything changes; the old children end up detached.
func (n *Node) ReplaceChildren(children []*Node) error {
	seen := make(map[*Node]bool, len(children))
	for _, c := range children {
		if c.parent != nil || c == n || seen[c] {
			return ErrHasParent
		}
		seen[c] = true
	}

	for _, old := range n.children {
		old.parent = nil
	}
	n.children = make([]*Node, len(children))
	copy(n.children, children)
	for _, c := range n.children {
		c.parent = n
	}
	return nil
}

// Walk visits n and its subtree depth-first in document order.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node, int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		walk(c, depth+1, fn)
	}
}

// Check verifies that every parent pointer under root matches the node's
// position and that no node is reachable twice.
func Check(root *Node) error {
	seen := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("p3d: %s node reachable twice", n.Kind())
		}
		seen[n] = true
		if n.payload.Node() != n {
			return fmt.Errorf("p3d: %s payload bound to another node", n.Kind())
		}
		for _, c := range n.children {
			if c.parent != n {
				return fmt.Errorf("p3d: %s child of %s has wrong parent", c.Kind(), n.Kind())
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if root.parent != nil {
		return fmt.Errorf("p3d: root %s has a parent", root.Kind())
	}
	return visit(root)
}
