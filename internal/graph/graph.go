package graph

import (
	"errors"
	"fmt"

	"classgraph/internal/symtab"
)

// ErrNotFound is returned when a qualified name does not name a class.
var ErrNotFound = errors.New("graph: class not found")

// Graph is the arena that hands out ClassNode handles. The symbol table rooted
// at Root() owns the names; the arena owns identity.
type Graph struct {
	root  *symtab.Scope
	nodes []*ClassNode
	phase Phase
}

// NewGraph creates an empty symbol table with a global scope.
func NewGraph() *Graph {
	return &Graph{root: symtab.NewRoot()}
}

func (g *Graph) Root() *symtab.Scope { return g.root }

func (g *Graph) Phase() Phase { return g.phase }

// NewClass creates a class or struct node and registers it in parent (the
// global scope when nil). Nodes cannot be added after the resolver pass.
func (g *Graph) NewClass(parent *symtab.Scope, name, decl string, isClass bool, access symtab.Access) (*ClassNode, error) {
	if g.phase == PhaseResolved {
		return nil, ErrResolved
	}
	if parent == nil {
		parent = g.root
	}
	n := &ClassNode{
		Scope:      symtab.NewScope(name, access),
		id:         NodeID(len(g.nodes)),
		g:          g,
		decl:       decl,
		isClass:    isClass,
		derivedSet: make(map[NodeID]struct{}),
	}
	g.nodes = append(g.nodes, n)
	parent.Add(n)
	return n, nil
}

// Node returns the node for a handle.
func (g *Graph) Node(id NodeID) (*ClassNode, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []*ClassNode {
	out := make([]*ClassNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) Len() int { return len(g.nodes) }

// Find resolves a qualified class name from the global scope.
func (g *Graph) Find(name string) (*ClassNode, error) {
	sym, ok := g.root.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	n, ok := sym.(*ClassNode)
	if !ok || n.g != g {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotFound, name, sym.Kind())
	}
	return n, nil
}

// MarkResolved moves the graph to PhaseResolved. It is called once by the
// resolver pass after every node has been fixed up.
func (g *Graph) MarkResolved() {
	g.phase = PhaseResolved
}

// UnresolvedBase is a base edge whose name did not resolve to a class.
type UnresolvedBase struct {
	From *ClassNode
	Edge BaseEdge
}

// Unresolved lists every base edge without a target, in node then declaration order.
func (g *Graph) Unresolved() []UnresolvedBase {
	var out []UnresolvedBase
	for _, n := range g.nodes {
		for _, e := range n.bases {
			if !e.IsResolved() {
				out = append(out, UnresolvedBase{From: n, Edge: e})
			}
		}
	}
	return out
}

// EdgeCount returns the number of resolved base edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		for _, e := range n.bases {
			if e.IsResolved() {
				count++
			}
		}
	}
	return count
}
