package analysis

import (
	"fmt"

	"classgraph/internal/graph"
)

// DiagnosticKind classifies a problem found in a resolved graph.
type DiagnosticKind string

const (
	UnresolvedBase      DiagnosticKind = "unresolved-base"
	NonClassBase        DiagnosticKind = "non-class-base"
	DuplicateBase       DiagnosticKind = "duplicate-base"
	MultipleDestructors DiagnosticKind = "multiple-destructors"
	InheritanceCycle    DiagnosticKind = "inheritance-cycle"
)

// Diagnostic is one finding about a class.
type Diagnostic struct {
	Kind    DiagnosticKind
	Class   *graph.ClassNode
	Message string
}

// Diagnose inspects every class of a resolved graph. Base names that did not
// resolve are looked up again with l (graph.ScopeLookup when nil) to tell
// missing names apart from names of non-class symbols. Results follow node
// creation order.
func Diagnose(g *graph.Graph, l graph.Lookup) []Diagnostic {
	if l == nil {
		l = graph.ScopeLookup{}
	}
	var out []Diagnostic
	for _, n := range g.Nodes() {
		counts := make(map[string]int)
		for _, e := range n.BaseEdges() {
			counts[e.Name]++
			if counts[e.Name] == 2 {
				out = append(out, Diagnostic{
					Kind:    DuplicateBase,
					Class:   n,
					Message: fmt.Sprintf("base %s is listed more than once", e.Name),
				})
			}
			if e.IsResolved() {
				continue
			}
			if sym, ok := l.Lookup(n, e.Name); ok {
				out = append(out, Diagnostic{
					Kind:    NonClassBase,
					Class:   n,
					Message: fmt.Sprintf("base %s names a %s, not a class", e.Name, sym.Kind()),
				})
				continue
			}
			out = append(out, Diagnostic{
				Kind:    UnresolvedBase,
				Class:   n,
				Message: fmt.Sprintf("base %s not found", e.Name),
			})
		}

		if dtors := n.Destructors(); len(dtors) > 1 {
			out = append(out, Diagnostic{
				Kind:    MultipleDestructors,
				Class:   n,
				Message: fmt.Sprintf("%d destructors declared; %s is used", len(dtors), dtors[0]),
			})
		}

		if inCycle(n) {
			out = append(out, Diagnostic{
				Kind:    InheritanceCycle,
				Class:   n,
				Message: "class is its own ancestor",
			})
		}
	}
	return out
}

// inCycle reports whether n can reach itself through resolved base edges.
func inCycle(n *graph.ClassNode) bool {
	visited := map[graph.NodeID]bool{}
	stack := n.ResolvedBases()
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ID() == n.ID() {
			return true
		}
		if visited[cur.ID()] {
			continue
		}
		visited[cur.ID()] = true
		stack = append(stack, cur.ResolvedBases()...)
	}
	return false
}

// Summary counts diagnostics by kind.
func Summary(diags []Diagnostic) map[DiagnosticKind]int {
	out := make(map[DiagnosticKind]int)
	for _, d := range diags {
		out[d.Kind]++
	}
	return out
}
