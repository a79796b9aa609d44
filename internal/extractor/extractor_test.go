package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"classgraph/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, name string) *ir.TranslationUnit {
	t.Helper()
	ext, err := NewExtractor(LangCpp)
	require.NoError(t, err)
	unit, err := ext.ExtractFromFile(context.Background(), filepath.Join("testdata", name))
	require.NoError(t, err)
	return unit
}

func classesByName(classes []ir.Class) map[string]ir.Class {
	out := make(map[string]ir.Class)
	for _, c := range classes {
		if _, seen := out[c.Name]; !seen {
			out[c.Name] = c
		}
	}
	return out
}

func functionsByName(fns []ir.Function) map[string]ir.Function {
	out := make(map[string]ir.Function)
	for _, fn := range fns {
		out[fn.Name] = fn
	}
	return out
}

func TestExtractor_ExtractFromFile(t *testing.T) {
	unit := extract(t, "shapes.hpp")

	assert.Equal(t, LangCpp, unit.Language)
	assert.False(t, unit.IsSource)
	assert.Len(t, unit.ContentHash, 16)

	require.Len(t, unit.Global.Namespaces, 1)
	gfx := unit.Global.Namespaces[0]
	assert.Equal(t, "gfx", gfx.Name)
	classes := classesByName(gfx.Classes)

	t.Run("Using directive", func(t *testing.T) {
		assert.Equal(t, []ir.Using{{Target: "gfx", Namespace: true}}, unit.Global.Using)
	})

	t.Run("Class kinds and default access", func(t *testing.T) {
		point, ok := classes["Point"]
		require.True(t, ok)
		assert.False(t, point.IsClass)
		require.Len(t, point.Fields, 2)
		assert.Equal(t, "public", point.Fields[0].Access)

		shape := classes["Shape"]
		assert.True(t, shape.IsClass)
		assert.Equal(t, "class Shape : public Drawable", shape.Decl)
	})

	t.Run("Bases", func(t *testing.T) {
		assert.Equal(t, []ir.Base{{Name: "Drawable", Access: "public"}}, classes["Shape"].Bases)
		assert.Equal(t, []ir.Base{
			{Name: "Shape", Access: "public"},
			{Name: "Point", Access: "private", Virtual: true},
		}, classes["Circle"].Bases)
	})

	t.Run("Special members", func(t *testing.T) {
		fns := classes["Drawable"].Functions
		require.Len(t, fns, 2)
		assert.Equal(t, ir.RoleDestructor, fns[0].Role)
		assert.Equal(t, "~Drawable", fns[0].Name)
		assert.True(t, fns[0].Virtual)
		assert.True(t, fns[1].Pure)
		assert.True(t, fns[1].Const)

		var ctors []ir.Function
		for _, fn := range classes["Shape"].Functions {
			if fn.Role == ir.RoleConstructor {
				ctors = append(ctors, fn)
			}
		}
		require.Len(t, ctors, 3)
		assert.Empty(t, ctors[0].Params)
		assert.Equal(t, []string{"const std::string&"}, ctors[1].Params)
		assert.True(t, ctors[2].Deleted)
	})

	t.Run("Access sections", func(t *testing.T) {
		shape := classes["Shape"]
		byName := functionsByName(shape.Functions)
		assert.Equal(t, "public", byName["move"].Access)
		assert.Equal(t, []string{"int", "int"}, byName["move"].Params)
		assert.True(t, byName["count"].Static)

		require.Len(t, shape.Fields, 1)
		assert.Equal(t, "name_", shape.Fields[0].Name)
		assert.Equal(t, "protected", shape.Fields[0].Access)

		require.Len(t, shape.Classes, 1)
		assert.Equal(t, "Cache", shape.Classes[0].Name)
		assert.Equal(t, "private", shape.Classes[0].Access)
	})

	t.Run("Inline definitions and override", func(t *testing.T) {
		area := functionsByName(classes["Circle"].Functions)["area"]
		assert.True(t, area.Inline)
		assert.True(t, area.Override)
		assert.True(t, area.Virtual)
		assert.Equal(t, "double area() const override", area.Decl)
	})

	t.Run("Templates", func(t *testing.T) {
		var boxes []ir.Class
		for _, c := range gfx.Classes {
			if c.Name == "Box" {
				boxes = append(boxes, c)
			}
		}
		require.Len(t, boxes, 2)
		assert.True(t, boxes[0].Template)
		assert.False(t, boxes[0].Specialization)
		assert.Equal(t, []ir.Base{{Name: "Shape", Access: "private"}}, boxes[0].Bases)
		assert.True(t, boxes[1].Specialization)
	})

	t.Run("Namespace members", func(t *testing.T) {
		require.Len(t, gfx.Aliases, 2)
		assert.Equal(t, "ShapePtr", gfx.Aliases[0].Name)
		assert.Equal(t, "ShapeList", gfx.Aliases[1].Name)

		render := functionsByName(gfx.Functions)["render"]
		assert.Equal(t, []string{"Shape&", "int"}, render.Params)

		require.Len(t, gfx.Namespaces, 1)
		assert.Equal(t, "detail", gfx.Namespaces[0].Name)
		assert.Empty(t, gfx.Namespaces[0].Classes, "forward declarations are not definitions")
	})
}

func TestExtractor_TypedefClasses(t *testing.T) {
	unit := extract(t, "typedefs.h")
	classes := classesByName(unit.Global.Classes)
	require.Len(t, unit.Global.Classes, 4)

	t.Run("Named class in typedef", func(t *testing.T) {
		node, ok := classes["Node"]
		require.True(t, ok)
		assert.False(t, node.IsClass)
		assert.Equal(t, "struct Node", node.Decl)
		require.Len(t, node.Functions, 1)
		assert.Equal(t, ir.RoleDestructor, node.Functions[0].Role)
		assert.True(t, node.Functions[0].Virtual)
		require.Len(t, node.Fields, 1)

		assert.Equal(t, []ir.Base{{Name: "Node", Access: "public"}}, classes["Derived"].Bases)
	})

	t.Run("No self alias", func(t *testing.T) {
		require.Len(t, unit.Global.Aliases, 1)
		assert.Equal(t, "NodePtr", unit.Global.Aliases[0].Name)
		assert.Equal(t, "Node", unit.Global.Aliases[0].Target)
	})

	t.Run("Anonymous class takes the typedef name", func(t *testing.T) {
		plain, ok := classes["Plain"]
		require.True(t, ok)
		assert.Equal(t, "struct Plain", plain.Decl)
		assert.Len(t, plain.Fields, 2)
	})

	t.Run("Member typedef", func(t *testing.T) {
		registry := classes["Registry"]
		require.Len(t, registry.Classes, 1)
		assert.Equal(t, "Entry", registry.Classes[0].Name)
		assert.Equal(t, "public", registry.Classes[0].Access)
		assert.Empty(t, registry.Aliases)
	})
}

func TestExtractor_SourceFile(t *testing.T) {
	unit := extract(t, "widget.cpp")

	assert.True(t, unit.IsSource)
	assert.Empty(t, unit.Global.Functions, "out-of-line member definitions are skipped")
	require.Len(t, unit.Global.Namespaces, 1)
	anon := unit.Global.Namespaces[0]
	assert.Empty(t, anon.Name)
	require.Len(t, anon.Classes, 1)
	assert.Equal(t, []ir.Base{{Name: "gfx::Shape", Access: "public"}}, anon.Classes[0].Bases)
}

func TestExtractor_StableIDs(t *testing.T) {
	a := extract(t, "shapes.hpp")
	b := extract(t, "shapes.hpp")
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Global.Namespaces[0].Classes[0].ID, b.Global.Namespaces[0].Classes[0].ID)
	assert.Contains(t, a.Global.Namespaces[0].Classes[0].ID, "cpp/class:gfx::Drawable:")
}

func TestExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("rust")
	assert.Error(t, err)
}

func TestBuildStableSymbolID(t *testing.T) {
	id1 := BuildStableSymbolID("function", "gfx::Shape::move", "move(int,  int)")
	id2 := BuildStableSymbolID("function", "gfx::Shape::move", "move(int, int)")
	id3 := BuildStableSymbolID("function", "gfx::Shape::move", "move(int)")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Contains(t, BuildStableSymbolID("", "", ""), "cpp/symbol:_:")
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("a/b.CC"))
	assert.True(t, IsSourceFile("x.cpp"))
	assert.False(t, IsSourceFile("x.hpp"))
	assert.False(t, IsSourceFile("x.h"))
}
