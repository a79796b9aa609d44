package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_FullName(t *testing.T) {
	root := NewRoot()
	inner := root.EnsureNamespace("outer::inner")
	fn := NewFunction("run", nil, AccessPublic, RoleMethod, 0)
	inner.Add(fn)

	assert.Equal(t, "outer::inner", inner.FullName())
	assert.Equal(t, "outer::inner::run", fn.FullName())
	assert.Same(t, root, fn.Parent().Root())
	assert.Same(t, inner, root.EnsureNamespace("outer::inner"), "namespaces reopen")
}

func TestScope_Lookup(t *testing.T) {
	root := NewRoot()
	lib := root.EnsureNamespace("lib")
	detail := lib.EnsureNamespace("detail")
	app := root.EnsureNamespace("app")

	vec := NewTypedef("Vec", "std::vector<int>", AccessPublic)
	lib.Add(vec)
	helper := NewVariable("helper", "int", AccessPublic)
	detail.Add(helper)
	global := NewVariable("global", "int", AccessPublic)
	root.Add(global)

	tests := []struct {
		name string
		from *Scope
		want Symbol
	}{
		{"qualified from sibling", app, vec},
		{"template args ignored", app, vec},
		{"absolute", detail, vec},
		{"enclosing scope", detail, vec},
		{"nested qualified", root, helper},
		{"global from nested", detail, global},
	}
	queries := []string{"lib::Vec", "lib::Vec<double>", "::lib::Vec", "Vec", "lib::detail::helper", "global"}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.from.Lookup(queries[i])
			require.True(t, ok, queries[i])
			assert.Same(t, tt.want, got)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, ok := app.Lookup("lib::Nope")
		assert.False(t, ok)
		_, ok = app.Lookup("")
		assert.False(t, ok)
		_, ok = app.Lookup("Vec")
		assert.False(t, ok, "Vec is not visible from app without qualification")
	})
}

func TestScope_LookupUsing(t *testing.T) {
	root := NewRoot()
	std := root.EnsureNamespace("std")
	str := NewTypedef("string", "basic_string<char>", AccessPublic)
	std.Add(str)
	ext := root.EnsureNamespace("ext")
	list := NewTypedef("list", "ext_list", AccessPublic)
	ext.Add(list)

	app := root.EnsureNamespace("app")
	app.ImportNamespace("std")
	app.ImportNamespace("std")
	app.ImportSymbol("ext::list")

	got, ok := app.Lookup("string")
	require.True(t, ok)
	assert.Same(t, str, got)

	got, ok = app.Lookup("list")
	require.True(t, ok)
	assert.Same(t, list, got)
}

func TestScope_LookupUsingCycle(t *testing.T) {
	root := NewRoot()
	a := root.EnsureNamespace("a")
	b := root.EnsureNamespace("b")
	a.ImportNamespace("b")
	b.ImportNamespace("a")

	_, ok := a.Lookup("nothing")
	assert.False(t, ok)
}

func TestScope_LookupPrefersTypesOverFunctions(t *testing.T) {
	root := NewRoot()
	fn := NewFunction("stat", []string{"const char*"}, AccessPublic, RoleMethod, 0)
	typ := NewTypedef("stat", "struct stat", AccessPublic)
	root.Add(fn)
	root.Add(typ)

	got, ok := root.Lookup("stat")
	require.True(t, ok)
	assert.Same(t, typ, got)
	assert.Len(t, root.Find("stat"), 2)
}

func TestScope_LookupPrefersContainersOverTypedefs(t *testing.T) {
	root := NewRoot()
	alias := NewTypedef("Point", "Point", AccessPublic)
	root.Add(alias)
	point := root.EnsureNamespace("Point")
	x := NewVariable("x", "int", AccessPublic)
	point.Add(x)

	got, ok := root.Lookup("Point")
	require.True(t, ok)
	assert.Same(t, point, got, "the typedef was added first")

	got, ok = root.Lookup("Point::x")
	require.True(t, ok)
	assert.Same(t, x, got)
}

func TestScope_LookupUsingSkipsNominatedParents(t *testing.T) {
	root := NewRoot()
	outer := root.EnsureNamespace("outer")
	outer.Add(NewTypedef("Hidden", "int", AccessPublic))
	inner := outer.EnsureNamespace("inner")
	shown := NewTypedef("Shown", "int", AccessPublic)
	inner.Add(shown)

	app := root.EnsureNamespace("app")
	app.ImportNamespace("outer::inner")

	got, ok := app.Lookup("Shown")
	require.True(t, ok)
	assert.Same(t, shown, got)

	_, ok = app.Lookup("Hidden")
	assert.False(t, ok, "outer is not nominated")

	t.Run("transitive", func(t *testing.T) {
		extra := root.EnsureNamespace("extra")
		more := NewTypedef("More", "int", AccessPublic)
		extra.Add(more)
		inner.ImportNamespace("::extra")

		got, ok := app.Lookup("More")
		require.True(t, ok)
		assert.Same(t, more, got)
	})
}

func TestSplitQualified(t *testing.T) {
	assert.Equal(t, []string{"a", "b<c::d>", "e"}, SplitQualified("a::b<c::d>::e"))
	assert.Equal(t, []string{"", "x"}, SplitQualified("::x"))
	assert.Equal(t, []string{"x"}, SplitQualified("x"))
	assert.Equal(t, "Base", StripTemplateArgs("Base<std::pair<int, int>>"))
}

func TestParseAccess(t *testing.T) {
	a, ok := ParseAccess("protected:")
	assert.True(t, ok)
	assert.Equal(t, AccessProtected, a)

	_, ok = ParseAccess("friend")
	assert.False(t, ok)
	assert.Equal(t, "public", AccessPublic.String())
}
