package resolver

import (
	"classgraph/internal/graph"
	"classgraph/internal/symtab"

	"github.com/sirupsen/logrus"
)

// HeuristicResolver retries unresolved bases by unqualified name. A base binds
// only when exactly one class in the graph carries that name, which covers
// headers that rely on a using directive the scanner never saw.
type HeuristicResolver struct {
	logger *logrus.Logger
}

func NewHeuristicResolver(logger *logrus.Logger) *HeuristicResolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HeuristicResolver{logger: logger}
}

func (r *HeuristicResolver) Name() string {
	return "heuristic"
}

func (r *HeuristicResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	if g == nil {
		return ResolveStats{}, nil
	}

	byName := make(map[string][]*graph.ClassNode)
	for _, n := range g.Nodes() {
		byName[n.Name()] = append(byName[n.Name()], n)
	}

	lookup := graph.LookupFunc(func(from *graph.ClassNode, name string) (symtab.Symbol, bool) {
		if sym, ok := (graph.ScopeLookup{}).Lookup(from, name); ok {
			if _, isClass := sym.(*graph.ClassNode); isClass {
				return sym, true
			}
		}
		parts := symtab.SplitQualified(name)
		short := symtab.StripTemplateArgs(parts[len(parts)-1])
		candidates := byName[short]
		if len(candidates) != 1 {
			return nil, false
		}
		return candidates[0], true
	})

	pending := make(map[*graph.ClassNode]bool)
	for _, u := range g.Unresolved() {
		pending[u.From] = true
	}

	var stats ResolveStats
	for _, n := range g.Nodes() {
		if !pending[n] {
			continue
		}
		before := countResolved(n)
		edges := len(n.BaseEdges())
		after := n.FixupBases(lookup)
		stats.Attempted += edges - before
		stats.Resolved += after - before
		stats.Skipped += edges - after
		if after > before {
			r.logger.WithField("class", n.FullName()).Debug("bound bases by unqualified name")
		}
	}
	return stats, nil
}

func countResolved(n *graph.ClassNode) int {
	count := 0
	for _, e := range n.BaseEdges() {
		if e.IsResolved() {
			count++
		}
	}
	return count
}
