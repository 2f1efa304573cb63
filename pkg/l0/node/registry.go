package node

// Registry is the ordered, append-only collection of subscribed nodes.
// It is owned by the loop goroutine and is not safe for concurrent use.
type Registry struct {
	nodes []*Node
}

// Append adds a node to the end.
func (r *Registry) Append(n *Node) {
	r.nodes = append(r.nodes, n)
}

// Len returns the number of nodes.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Find returns the first node with the name.
func (r *Registry) Find(name string) (*Node, bool) {
	for _, n := range r.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Exists tells whether a node with the name is subscribed.
func (r *Registry) Exists(name string) bool {
	_, ok := r.Find(name)
	return ok
}

// ForEach visits nodes in subscription order.
func (r *Registry) ForEach(fn func(*Node)) {
	for _, n := range r.nodes {
		fn(n)
	}
}

// Names lists node names in subscription order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		names[i] = n.Name
	}
	return names
}
