package resolver

import (
	"errors"
	"io"
	"testing"

	"classgraph/internal/graph"
	"classgraph/internal/symtab"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	name string
	fn   func(g *graph.Graph) (ResolveStats, error)
}

func (f fakeResolver) Name() string { return f.name }
func (f fakeResolver) Resolve(g *graph.Graph) (ResolveStats, error) {
	return f.fn(g)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func class(t *testing.T, g *graph.Graph, parent *symtab.Scope, name string, bases ...string) *graph.ClassNode {
	t.Helper()
	n, err := g.NewClass(parent, name, "class "+name, true, symtab.AccessPrivate)
	require.NoError(t, err)
	for _, b := range bases {
		require.NoError(t, n.AddBase(b, symtab.AccessPublic, false))
	}
	return n
}

func TestResolverChain_Run(t *testing.T) {
	g := graph.NewGraph()
	class(t, g, nil, "Base")
	class(t, g, nil, "A", "Base")
	class(t, g, nil, "B", "Missing")

	fail := errors.New("boom")
	r2 := fakeResolver{
		name: "r2",
		fn:   func(*graph.Graph) (ResolveStats, error) { return ResolveStats{}, fail },
	}
	r3 := fakeResolver{
		name: "r3",
		fn: func(*graph.Graph) (ResolveStats, error) {
			t.Fatal("stage after a failure must not run")
			return ResolveStats{}, nil
		},
	}

	chain := NewResolverChain(NewBaseResolver(nil, quietLogger()), r2, r3)
	results := chain.Run(g)

	require.Len(t, results, 2)
	assert.Equal(t, "scope", results[0].Resolver)
	assert.Equal(t, ResolveStats{Attempted: 2, Resolved: 1, Skipped: 1}, results[0].Stats)
	assert.Equal(t, 2, results[0].UnresolvedBefore)
	assert.Equal(t, 1, results[0].UnresolvedAfter)
	assert.Equal(t, 1, results[0].EdgeCount)
	assert.ErrorIs(t, results[1].Err, fail)
	assert.Equal(t, graph.PhaseResolved, g.Phase())

	assert.Nil(t, chain.Run(nil))
}

func TestBaseResolver_SealsGraph(t *testing.T) {
	g := graph.NewGraph()
	n := class(t, g, nil, "Lonely")

	stats, err := NewBaseResolver(nil, quietLogger()).Resolve(g)
	require.NoError(t, err)
	assert.Equal(t, ResolveStats{}, stats)
	assert.Equal(t, graph.PhaseResolved, n.Phase())
	assert.ErrorIs(t, n.AddBase("Late", symtab.AccessPublic, false), graph.ErrResolved)
}

func TestHeuristicResolver_UniqueShortName(t *testing.T) {
	g := graph.NewGraph()
	gfx := g.Root().EnsureNamespace("gfx")
	shape := class(t, g, gfx, "Shape")
	class(t, g, g.Root().EnsureNamespace("a"), "Node")
	class(t, g, g.Root().EnsureNamespace("b"), "Node")
	circle := class(t, g, nil, "Circle", "Shape<float>")
	tree := class(t, g, nil, "Tree", "Node")

	results := NewDefaultChain(quietLogger(), true).Run(g)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].UnresolvedAfter)
	assert.Equal(t, "heuristic", results[1].Resolver)
	assert.Equal(t, ResolveStats{Attempted: 2, Resolved: 1, Skipped: 1}, results[1].Stats)
	assert.Equal(t, 1, results[1].UnresolvedAfter)

	assert.Equal(t, []*graph.ClassNode{circle}, shape.Derived())
	assert.False(t, tree.BaseEdges()[0].IsResolved(), "ambiguous short names stay unresolved")
}

func TestNewDefaultChain_WithoutHeuristic(t *testing.T) {
	g := graph.NewGraph()
	class(t, g, g.Root().EnsureNamespace("gfx"), "Shape")
	class(t, g, nil, "Circle", "Shape")

	results := NewDefaultChain(quietLogger(), false).Run(g)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].UnresolvedAfter)
}
