package resolver

import (
	"classgraph/internal/graph"

	"github.com/sirupsen/logrus"
)

// BaseResolver is the single post-ingestion pass: it fixes up the base edges of
// every node in creation order and then seals the graph.
type BaseResolver struct {
	lookup graph.Lookup
	logger *logrus.Logger
}

// NewBaseResolver uses graph.ScopeLookup when lookup is nil.
func NewBaseResolver(lookup graph.Lookup, logger *logrus.Logger) *BaseResolver {
	if lookup == nil {
		lookup = graph.ScopeLookup{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BaseResolver{lookup: lookup, logger: logger}
}

func (r *BaseResolver) Name() string {
	return "scope"
}

func (r *BaseResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	if g == nil {
		return ResolveStats{}, nil
	}

	var stats ResolveStats
	for _, n := range g.Nodes() {
		edges := len(n.BaseEdges())
		resolved := n.FixupBases(r.lookup)
		stats.Attempted += edges
		stats.Resolved += resolved
		stats.Skipped += edges - resolved
	}
	g.MarkResolved()

	for _, u := range g.Unresolved() {
		r.logger.WithFields(logrus.Fields{
			"class": u.From.FullName(),
			"base":  u.Edge.Name,
		}).Debug("base class not found")
	}
	return stats, nil
}
