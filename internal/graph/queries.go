package graph

import "classgraph/internal/symtab"

// HasVirtualDestructor reports whether c or any ancestor reachable through
// resolved edges declares a virtual destructor. Unresolved bases count as
// having none.
func (c *ClassNode) HasVirtualDestructor() bool {
	found := false
	c.walk(true, func(n *ClassNode) bool {
		if d, ok := n.Destructor(); ok && d.IsVirtual() {
			found = true
			return false
		}
		return true
	})
	return found
}

// InheritedMethods collects the methods of every resolved ancestor that are not
// hidden by a same-named method declared on c. Hiding is by name only, so one
// local overload hides every inherited overload. Constructors and destructors
// are not inherited. Each function appears once, in depth-first base order.
func (c *ClassNode) InheritedMethods() []*symtab.Function {
	hidden := make(map[string]struct{})
	for _, fn := range c.Functions() {
		if fn.Role == symtab.RoleMethod {
			hidden[fn.Name()] = struct{}{}
		}
	}

	seen := make(map[*symtab.Function]struct{})
	var out []*symtab.Function
	c.walk(false, func(n *ClassNode) bool {
		for _, fn := range n.Functions() {
			if fn.Role != symtab.RoleMethod {
				continue
			}
			if _, ok := hidden[fn.Name()]; ok {
				continue
			}
			if _, ok := seen[fn]; ok {
				continue
			}
			seen[fn] = struct{}{}
			out = append(out, fn)
		}
		return true
	})
	return out
}

// Ancestors returns every class reachable through resolved base edges, each
// once, in depth-first declaration order.
func (c *ClassNode) Ancestors() []*ClassNode {
	var out []*ClassNode
	c.walk(false, func(n *ClassNode) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Descendants returns every class reachable through derived back-references.
func (c *ClassNode) Descendants() []*ClassNode {
	visited := map[NodeID]bool{c.id: true}
	var out []*ClassNode
	stack := reversed(c.derived)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, ok := c.g.Node(id)
		if !ok {
			continue
		}
		out = append(out, n)
		stack = append(stack, reversed(n.derived)...)
	}
	return out
}

// walk visits c's resolved ancestors depth-first, bases in declaration order,
// each node at most once. visit returns false to stop.
func (c *ClassNode) walk(includeSelf bool, visit func(*ClassNode) bool) {
	visited := map[NodeID]bool{c.id: true}
	if includeSelf && !visit(c) {
		return
	}
	stack := reversed(resolvedIDs(c))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, ok := c.g.Node(id)
		if !ok {
			continue
		}
		if !visit(n) {
			return
		}
		stack = append(stack, reversed(resolvedIDs(n))...)
	}
}

func resolvedIDs(n *ClassNode) []NodeID {
	ids := make([]NodeID, 0, len(n.bases))
	for _, b := range n.bases {
		if b.IsResolved() {
			ids = append(ids, b.Resolved)
		}
	}
	return ids
}

func reversed(ids []NodeID) []NodeID {
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
