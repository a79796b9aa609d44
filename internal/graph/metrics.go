package graph

// Metrics summarizes the shape of a graph.
type Metrics struct {
	Classes         int
	Structs         int
	Templates       int
	Specializations int
	Inline          int
	Edges           int
	Resolved        int
	Unresolved      int
	VirtualEdges    int
	MaxDepth        int // longest chain of resolved bases below a root class
}

// Metrics counts nodes and edges. Depth follows resolved edges only and
// ignores cycles.
func (g *Graph) Metrics() Metrics {
	var m Metrics
	if g == nil {
		return m
	}
	depth := make(map[NodeID]int, len(g.nodes))
	for _, n := range g.nodes {
		if n.IsClass() {
			m.Classes++
		} else {
			m.Structs++
		}
		if n.flags.Has(FlagTemplate) {
			m.Templates++
		}
		if n.flags.Has(FlagTemplateSpecialization) {
			m.Specializations++
		}
		if n.flags.Has(FlagInline) {
			m.Inline++
		}
		for _, e := range n.bases {
			m.Edges++
			if e.Virtual {
				m.VirtualEdges++
			}
			if e.IsResolved() {
				m.Resolved++
			} else {
				m.Unresolved++
			}
		}
		if d := g.depth(n.id, depth, map[NodeID]bool{}); d > m.MaxDepth {
			m.MaxDepth = d
		}
	}
	return m
}

func (g *Graph) depth(id NodeID, memo map[NodeID]int, active map[NodeID]bool) int {
	if d, ok := memo[id]; ok {
		return d
	}
	if active[id] {
		return 0
	}
	active[id] = true
	best := 0
	for _, e := range g.nodes[id].bases {
		if !e.IsResolved() {
			continue
		}
		if d := g.depth(e.Resolved, memo, active) + 1; d > best {
			best = d
		}
	}
	delete(active, id)
	memo[id] = best
	return best
}
