package analysis

import (
	"classgraph/internal/graph"
	"classgraph/internal/symtab"
)

// FindInHierarchy looks signature up on n and then on its resolved ancestors,
// depth-first with bases in declaration order. It returns the first match and
// the class that declares it.
func FindInHierarchy(n *graph.ClassNode, signature string) (*symtab.Function, *graph.ClassNode, bool) {
	if n == nil {
		return nil, nil, false
	}
	if fn, ok := n.FindFunction(signature); ok {
		return fn, n, true
	}
	for _, a := range n.Ancestors() {
		if fn, ok := a.FindFunction(signature); ok {
			return fn, a, true
		}
	}
	return nil, nil, false
}
