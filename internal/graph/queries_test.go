package graph

import (
	"testing"

	"classgraph/internal/symtab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds Top <- Left, Right <- Bottom.
func diamond(t *testing.T) (g *Graph, top, left, right, bottom *ClassNode) {
	t.Helper()
	g = NewGraph()
	top = newClass(t, g, nil, "Top")
	left = newClass(t, g, nil, "Left")
	right = newClass(t, g, nil, "Right")
	bottom = newClass(t, g, nil, "Bottom")
	require.NoError(t, left.AddBase("Top", symtab.AccessPublic, true))
	require.NoError(t, right.AddBase("Top", symtab.AccessPublic, true))
	addBase(t, bottom, "Left")
	addBase(t, bottom, "Right")
	return g, top, left, right, bottom
}

func TestQueries_DiamondVirtualDestructor(t *testing.T) {
	g, top, _, _, bottom := diamond(t)
	top.Add(dtor("Top", true))
	resolveAll(g)

	_, hasOwn := bottom.Destructor()
	assert.False(t, hasOwn)
	assert.True(t, bottom.HasVirtualDestructor())
	assert.Len(t, bottom.Ancestors(), 3, "shared ancestor is visited once")
}

func TestQueries_DiamondInheritedMethodsDeduplicated(t *testing.T) {
	g, top, left, right, bottom := diamond(t)
	shared := method("shared")
	top.Add(shared)
	l := method("fromLeft")
	left.Add(l)
	r := method("fromRight")
	right.Add(r)
	resolveAll(g)

	assert.Equal(t, []*symtab.Function{l, shared, r}, bottom.InheritedMethods())
}

func TestQueries_NameHidingCoversAllOverloads(t *testing.T) {
	g := NewGraph()
	base := newClass(t, g, nil, "Base")
	base.Add(method("draw"))
	base.Add(method("draw", "int"))
	base.Add(method("draw", "int", "int"))
	keep := method("resize", "int")
	base.Add(keep)

	derived := newClass(t, g, nil, "Derived")
	addBase(t, derived, "Base")
	derived.Add(method("draw", "double"))
	resolveAll(g)

	assert.Equal(t, []*symtab.Function{keep}, derived.InheritedMethods())
}

func TestQueries_SpecialMembersNotInherited(t *testing.T) {
	g := NewGraph()
	base := newClass(t, g, nil, "Base")
	base.Add(ctor("Base"))
	base.Add(dtor("Base", true))
	op := method("operator==", "const Base&")
	base.Add(op)

	derived := newClass(t, g, nil, "Derived")
	addBase(t, derived, "Base")
	resolveAll(g)

	assert.Equal(t, []*symtab.Function{op}, derived.InheritedMethods())
}

func TestQueries_UnresolvedBaseContributesNothing(t *testing.T) {
	g := NewGraph()
	n := newClass(t, g, nil, "Widget")
	addBase(t, n, "QObject")
	n.Add(dtor("Widget", false))
	resolveAll(g)

	assert.False(t, n.HasVirtualDestructor())
	assert.Empty(t, n.InheritedMethods())
}

func TestQueries_CycleTerminates(t *testing.T) {
	g := NewGraph()
	a := newClass(t, g, nil, "A")
	b := newClass(t, g, nil, "B")
	self := newClass(t, g, nil, "Self")
	addBase(t, a, "B")
	addBase(t, b, "A")
	addBase(t, self, "Self")
	fa := method("fa")
	a.Add(fa)
	fb := method("fb")
	b.Add(fb)
	resolveAll(g)

	assert.False(t, a.HasVirtualDestructor())
	assert.Equal(t, []*symtab.Function{fb}, a.InheritedMethods())
	assert.Equal(t, []*ClassNode{b}, a.Ancestors())
	assert.Equal(t, []*ClassNode{b}, a.Descendants())

	assert.Empty(t, self.Ancestors())
	assert.Equal(t, []*ClassNode{self}, self.Derived())
	assert.False(t, self.HasVirtualDestructor())

	b.Add(dtor("B", true))
	assert.True(t, a.HasVirtualDestructor())
}

func TestQueries_OwnVirtualDestructor(t *testing.T) {
	g := NewGraph()
	n := newClass(t, g, nil, "Solo")
	n.Add(symtab.NewFunction("~Solo", nil, symtab.AccessPublic, symtab.RoleDestructor, symtab.FuncPureVirtual))

	assert.True(t, n.HasVirtualDestructor(), "pure virtual implies virtual")
}
