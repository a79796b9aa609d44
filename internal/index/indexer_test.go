package index

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"classgraph/internal/crawler"
	"classgraph/internal/extractor"
	"classgraph/internal/graph"
	"classgraph/internal/ir"
	"classgraph/internal/symtab"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestIndexer_BuildGraph(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"include/core/object.hpp": `
namespace core {
class Object {
public:
    virtual ~Object();
    virtual void retain();
    void release();
};
}
`,
		"include/ui/widget.hpp": `
namespace ui {
using namespace core;
class Widget : public Object {
public:
    void show();
    void paint() const;
};
}
`,
		"src/button.cpp": `
namespace ui {
class Button : public Widget, public Missing {
};
}
`,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	ext, err := extractor.NewExtractor(extractor.LangCpp)
	require.NoError(t, err)
	logger := quietLogger()
	idx := NewIndexer(crawler.NewCrawler(ext, crawler.Options{Workers: 2}, logger), nil, logger)

	res, err := idx.BuildGraph(context.Background(), root)
	require.NoError(t, err)
	g := res.Graph

	assert.Equal(t, graph.PhaseResolved, g.Phase())
	assert.Len(t, res.Units, 3)
	assert.Equal(t, 3, g.Len())
	require.Len(t, res.Stages, 1)
	assert.Equal(t, 2, res.Stages[0].Stats.Resolved)
	assert.Equal(t, 1, res.Stages[0].Stats.Skipped)

	object, err := g.Find("core::Object")
	require.NoError(t, err)
	widget, err := g.Find("ui::Widget")
	require.NoError(t, err)
	button, err := g.Find("ui::Button")
	require.NoError(t, err)

	assert.Equal(t, []*graph.ClassNode{widget}, object.Derived())
	assert.Equal(t, []*graph.ClassNode{button}, widget.Derived())
	assert.True(t, button.HasVirtualDestructor())
	assert.True(t, button.IsInline(), "classes in source files are local")
	assert.False(t, widget.IsInline())

	var names []string
	for _, fn := range button.InheritedMethods() {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"show", "paint", "retain", "release"}, names)

	unresolved := g.Unresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Missing", unresolved[0].Edge.Name)
	assert.Equal(t, filepath.Join(root, "src/button.cpp"), button.Loc.File)
}

func TestRegister_UnitIR(t *testing.T) {
	g := graph.NewGraph()
	unit := &ir.TranslationUnit{
		Path: "lib.hpp",
		Global: ir.Namespace{
			Functions: []ir.Function{
				{ID: "f1", Name: "helper", Role: ir.RoleMethod, Access: "public"},
				{ID: "f1", Name: "helper", Role: ir.RoleMethod, Access: "public"},
			},
			Namespaces: []ir.Namespace{{
				Name: "lib::v1",
				Aliases: []ir.Alias{
					{Name: "Handle", Target: "int", Access: "public"},
				},
				Classes: []ir.Class{{
					Name:     "Tmpl",
					IsClass:  true,
					Access:   "public",
					Template: true,
					Bases:    []ir.Base{{Name: "Handle", Access: "protected", Virtual: true}},
					Functions: []ir.Function{
						{Name: "Tmpl", Role: ir.RoleConstructor, Access: "public", Params: []string{"int"}},
						{Name: "get", Role: ir.RoleMethod, Access: "private", Const: true, Pure: true},
					},
					Fields:  []ir.Field{{Name: "value", Type: "int", Access: "private"}},
					Classes: []ir.Class{{Name: "Inner", Access: "private"}},
				}},
			}},
		},
	}

	require.NoError(t, Register(g, unit, quietLogger()))

	assert.Len(t, g.Root().Find("helper"), 1, "duplicate free function declarations collapse")

	tmpl, err := g.Find("lib::v1::Tmpl")
	require.NoError(t, err)
	assert.True(t, tmpl.Flags().Has(graph.FlagTemplate))
	assert.False(t, tmpl.IsInline())

	edges := tmpl.BaseEdges()
	require.Len(t, edges, 1)
	assert.Equal(t, symtab.AccessProtected, edges[0].Access)
	assert.True(t, edges[0].Virtual)

	require.Len(t, tmpl.Constructors(), 1)
	get, ok := tmpl.FindFunction("get() const")
	require.True(t, ok)
	assert.True(t, get.IsPureVirtual())
	assert.Equal(t, symtab.AccessPrivate, get.Access())

	inner, err := g.Find("lib::v1::Tmpl::Inner")
	require.NoError(t, err)
	assert.False(t, inner.IsClass())
	assert.Equal(t, symtab.KindVariable, tmpl.Find("value")[0].Kind())

	tmpl.FixupBases(nil)
	assert.False(t, tmpl.BaseEdges()[0].IsResolved(), "typedef targets are not classes")
}

func TestRegister_WarnsOnMultipleDestructors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	g := graph.NewGraph()
	unit := &ir.TranslationUnit{
		Global: ir.Namespace{Classes: []ir.Class{{
			Name:    "Twice",
			IsClass: true,
			Functions: []ir.Function{
				{Name: "~Twice", Role: ir.RoleDestructor},
				{Name: "~Twice", Role: ir.RoleDestructor, Virtual: true},
			},
		}}},
	}

	require.NoError(t, Register(g, unit, logger))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Twice", hook.LastEntry().Data["class"])
}

func TestRegister_AfterResolution(t *testing.T) {
	g := graph.NewGraph()
	g.MarkResolved()
	unit := &ir.TranslationUnit{Global: ir.Namespace{Classes: []ir.Class{{Name: "Late"}}}}

	err := Register(g, unit, quietLogger())
	assert.ErrorIs(t, err, graph.ErrResolved)
}

func TestRegister_TypedefDefinedClass(t *testing.T) {
	ext, err := extractor.NewExtractor(extractor.LangCpp)
	require.NoError(t, err)
	unit, err := ext.ExtractFromFile(context.Background(), filepath.Join("..", "extractor", "testdata", "typedefs.h"))
	require.NoError(t, err)

	g := graph.NewGraph()
	require.NoError(t, Register(g, unit, quietLogger()))
	assert.Equal(t, 5, g.Len())

	node, err := g.Find("Node")
	require.NoError(t, err)
	derived, err := g.Find("Derived")
	require.NoError(t, err)

	assert.Equal(t, 1, derived.FixupBases(nil))
	assert.Equal(t, node.ID(), derived.BaseEdges()[0].Resolved)
	assert.True(t, derived.HasVirtualDestructor())
}

func TestRegister_ClassWinsOverSameNamedTypedef(t *testing.T) {
	g := graph.NewGraph()
	unit := &ir.TranslationUnit{
		Global: ir.Namespace{
			Aliases: []ir.Alias{{Name: "Point", Target: "struct Point", Access: "public"}},
			Classes: []ir.Class{
				{
					Name:      "Point",
					IsClass:   true,
					Functions: []ir.Function{{Name: "~Point", Role: ir.RoleDestructor, Virtual: true}},
				},
				{Name: "Derived", IsClass: true, Bases: []ir.Base{{Name: "Point", Access: "public"}}},
			},
		},
	}
	require.NoError(t, Register(g, unit, quietLogger()))

	syms := g.Root().Find("Point")
	require.Len(t, syms, 2)
	assert.Equal(t, symtab.KindClass, syms[0].Kind(), "classes are added before aliases")

	derived, err := g.Find("Derived")
	require.NoError(t, err)
	assert.Equal(t, 1, derived.FixupBases(nil))
	assert.True(t, derived.HasVirtualDestructor())
}

func TestRegister_SpecializationSharesTemplateName(t *testing.T) {
	g := graph.NewGraph()
	unit := &ir.TranslationUnit{
		Global: ir.Namespace{Classes: []ir.Class{
			{Name: "Box", Template: true},
			{Name: "Box", Template: true, Specialization: true},
			{Name: "IntBox", Bases: []ir.Base{{Name: "Box<int>", Access: "public"}}},
		}},
	}
	require.NoError(t, Register(g, unit, quietLogger()))

	boxes := g.Root().Find("Box")
	require.Len(t, boxes, 2)
	primary := boxes[0].(*graph.ClassNode)
	assert.False(t, primary.Flags().Has(graph.FlagTemplateSpecialization))
	assert.True(t, boxes[1].(*graph.ClassNode).Flags().Has(graph.FlagTemplateSpecialization))

	intBox, err := g.Find("IntBox")
	require.NoError(t, err)
	require.Equal(t, 1, intBox.FixupBases(nil))
	assert.Equal(t, primary.ID(), intBox.BaseEdges()[0].Resolved, "template arguments are not matched")
}
