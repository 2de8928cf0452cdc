package p3d

// Children returns the direct children of n whose payload is a T, in order.
func Children[T Payload](n *Node) []T {
	var out []T
	for _, c := range n.children {
		if v, ok := c.payload.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Descendants returns every node below n whose payload is a T, depth-first
// in document order. n itself is not included.
func Descendants[T Payload](n *Node) []T {
	var out []T
	for _, c := range n.children {
		Walk(c, func(d *Node, _ int) bool {
			if v, ok := d.payload.(T); ok {
				out = append(out, v)
			}
			return true
		})
	}
	return out
}

// First returns the first direct child of n whose payload is a T.
func First[T Payload](n *Node) (T, bool) {
	for _, c := range n.children {
		if v, ok := c.payload.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Last returns the last direct child of n whose payload is a T.
func Last[T Payload](n *Node) (T, bool) {
	for i := len(n.children) - 1; i >= 0; i-- {
		if v, ok := n.children[i].payload.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// LastParam returns the shader's last parameter of type T with the given
// tag. Later parameters with the same tag override earlier ones.
func LastParam[T Param](s *Shader, tag string) (T, bool) {
	n := s.Node()
	for i := len(n.children) - 1; i >= 0; i-- {
		if v, ok := n.children[i].payload.(T); ok && v.Tag() == tag {
			return v, true
		}
	}
	var zero T
	return zero, false
}
