package resolver

import (
	"classgraph/internal/graph"

	"github.com/sirupsen/logrus"
)

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

type GraphResolver interface {
	Name() string
	Resolve(g *graph.Graph) (ResolveStats, error)
}

type StageResult struct {
	Resolver         string
	Stats            ResolveStats
	UnresolvedBefore int
	UnresolvedAfter  int
	EdgeCount        int
	Err              error
}

type ResolverChain struct {
	resolvers []GraphResolver
}

func NewResolverChain(resolvers ...GraphResolver) *ResolverChain {
	return &ResolverChain{resolvers: resolvers}
}

// NewDefaultChain runs the scope-based base resolver, optionally followed by
// the unique-name heuristic.
func NewDefaultChain(logger *logrus.Logger, heuristic bool) *ResolverChain {
	resolvers := []GraphResolver{NewBaseResolver(nil, logger)}
	if heuristic {
		resolvers = append(resolvers, NewHeuristicResolver(logger))
	}
	return NewResolverChain(resolvers...)
}

func (c *ResolverChain) Run(g *graph.Graph) []StageResult {
	if g == nil {
		return nil
	}

	var out []StageResult
	for _, r := range c.resolvers {
		before := len(g.Unresolved())
		stats, err := r.Resolve(g)
		after := len(g.Unresolved())
		out = append(out, StageResult{
			Resolver:         r.Name(),
			Stats:            stats,
			UnresolvedBefore: before,
			UnresolvedAfter:  after,
			EdgeCount:        g.EdgeCount(),
			Err:              err,
		})
		if err != nil {
			break
		}
	}
	return out
}
