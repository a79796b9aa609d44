package generator

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"classgraph/internal/analysis"
	"classgraph/internal/graph"
	"classgraph/internal/resolver"
	"classgraph/internal/symtab"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table is a titled grid of cells ready for terminal output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderText writes the table as borderless aligned columns.
func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, t.Title)
		} else {
			fmt.Fprintln(w, t.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "(none)")
		fmt.Fprintln(w)
		return nil
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// MembersTable lists the functions a class declares, in declaration order.
func MembersTable(n *graph.ClassNode) *Table {
	t := &Table{
		Title:   "Members of " + n.FullName(),
		Headers: []string{"Access", "Role", "Signature", "Modifiers", "Line"},
	}
	for _, fn := range n.Functions() {
		t.Rows = append(t.Rows, []string{
			fn.Access().String(),
			fn.Role.String(),
			fn.Signature(),
			modifiers(fn),
			line(fn.Loc),
		})
	}
	return t
}

// InheritedTable lists the methods n inherits, with the class that declares each.
func InheritedTable(n *graph.ClassNode) *Table {
	t := &Table{
		Title:   "Inherited methods",
		Headers: []string{"Signature", "From", "Access"},
	}
	for _, fn := range n.InheritedMethods() {
		from := "-"
		if owner := fn.Parent(); owner != nil {
			from = owner.FullName()
		}
		t.Rows = append(t.Rows, []string{fn.Signature(), from, fn.Access().String()})
	}
	return t
}

// DiagnosticsTable renders findings sorted by kind, then by class name.
func DiagnosticsTable(diags []analysis.Diagnostic) *Table {
	sorted := append([]analysis.Diagnostic(nil), diags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Class.FullName() < sorted[j].Class.FullName()
	})
	t := &Table{
		Title:   "Diagnostics",
		Headers: []string{"Kind", "Class", "Location", "Message"},
	}
	for _, d := range sorted {
		t.Rows = append(t.Rows, []string{
			string(d.Kind),
			d.Class.FullName(),
			location(d.Class.Loc),
			d.Message,
		})
	}
	return t
}

// ImpactTable renders the classes touched by a change set.
func ImpactTable(r *analysis.ImpactReport) *Table {
	t := &Table{
		Title:   "Impacted classes",
		Headers: []string{"Impact", "Class", "Location"},
	}
	for _, n := range r.DirectlyAffected {
		t.Rows = append(t.Rows, []string{"direct", n.FullName(), location(n.Loc)})
	}
	for _, n := range r.IndirectlyAffected {
		t.Rows = append(t.Rows, []string{"indirect", n.FullName(), location(n.Loc)})
	}
	return t
}

// StagesTable renders per-resolver results of one chain run.
func StagesTable(stages []resolver.StageResult) *Table {
	t := &Table{
		Title:   "Resolver stages",
		Headers: []string{"Resolver", "Attempted", "Resolved", "Unresolved", "Status"},
	}
	for _, st := range stages {
		status := "ok"
		if st.Err != nil {
			status = st.Err.Error()
		}
		t.Rows = append(t.Rows, []string{
			st.Resolver,
			strconv.Itoa(st.Stats.Attempted),
			strconv.Itoa(st.Stats.Resolved),
			fmt.Sprintf("%d -> %d", st.UnresolvedBefore, st.UnresolvedAfter),
			status,
		})
	}
	return t
}

// MetricsTable renders graph-wide counters.
func MetricsTable(m graph.Metrics) *Table {
	return &Table{
		Title:   "Graph",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"classes", strconv.Itoa(m.Classes)},
			{"structs", strconv.Itoa(m.Structs)},
			{"templates", strconv.Itoa(m.Templates)},
			{"specializations", strconv.Itoa(m.Specializations)},
			{"inline", strconv.Itoa(m.Inline)},
			{"base edges", strconv.Itoa(m.Edges)},
			{"virtual edges", strconv.Itoa(m.VirtualEdges)},
			{"resolved", strconv.Itoa(m.Resolved)},
			{"unresolved", strconv.Itoa(m.Unresolved)},
			{"max depth", strconv.Itoa(m.MaxDepth)},
		},
	}
}

// WriteClassReport prints a summary of one class followed by its member and
// inherited method tables.
func WriteClassReport(w io.Writer, n *graph.ClassNode, colored bool) error {
	title := n.String()
	if colored {
		color.New(color.Bold, color.FgCyan).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}

	fmt.Fprintf(w, "  location: %s\n", location(n.Loc))
	if f := n.Flags().String(); f != "" {
		fmt.Fprintf(w, "  flags:    %s\n", f)
	}
	for _, e := range n.BaseEdges() {
		target := "unresolved"
		if b, ok := resolvedBase(n, e); ok {
			target = b.FullName()
		} else if colored {
			target = color.RedString(target)
		}
		virtual := ""
		if e.Virtual {
			virtual = " virtual"
		}
		fmt.Fprintf(w, "  base:     %s%s %s -> %s\n", e.Access, virtual, e.Name, target)
	}
	for _, d := range n.Derived() {
		fmt.Fprintf(w, "  derived:  %s\n", d.FullName())
	}

	vdtor := "no"
	if n.HasVirtualDestructor() {
		vdtor = "yes"
	} else if colored && n.IsDerived() {
		vdtor = color.YellowString(vdtor)
	}
	fmt.Fprintf(w, "  virtual destructor: %s\n\n", vdtor)

	if err := MembersTable(n).RenderText(w, colored); err != nil {
		return err
	}
	return InheritedTable(n).RenderText(w, colored)
}

func resolvedBase(n *graph.ClassNode, e graph.BaseEdge) (*graph.ClassNode, bool) {
	if !e.IsResolved() {
		return nil, false
	}
	for _, b := range n.ResolvedBases() {
		if b.ID() == e.Resolved {
			return b, true
		}
	}
	return nil, false
}

func modifiers(fn *symtab.Function) string {
	var out []string
	for _, m := range []struct {
		flag symtab.FuncFlags
		name string
	}{
		{symtab.FuncStatic, "static"},
		{symtab.FuncVirtual, "virtual"},
		{symtab.FuncPureVirtual, "pure"},
		{symtab.FuncConst, "const"},
		{symtab.FuncInline, "inline"},
		{symtab.FuncOverride, "override"},
		{symtab.FuncFinal, "final"},
		{symtab.FuncDeleted, "deleted"},
		{symtab.FuncDefaulted, "default"},
		{symtab.FuncTemplate, "template"},
	} {
		if fn.Flags&m.flag != 0 {
			out = append(out, m.name)
		}
	}
	return strings.Join(out, " ")
}

func location(l symtab.Location) string {
	if l.File == "" {
		return "-"
	}
	if l.StartLine == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.StartLine)
}

func line(l symtab.Location) string {
	if l.StartLine == 0 {
		return "-"
	}
	return strconv.Itoa(l.StartLine)
}
