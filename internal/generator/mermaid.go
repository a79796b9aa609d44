package generator

import (
	"fmt"
	"regexp"
	"strings"

	"classgraph/internal/graph"
	"classgraph/internal/symtab"
)

// MermaidGenerator creates class diagrams from the resolved graph.
type MermaidGenerator struct {
	// Members adds member functions to each class box.
	Members bool
}

// ClassDiagram draws n together with its ancestors and descendants.
func (m *MermaidGenerator) ClassDiagram(n *graph.ClassNode) string {
	nodes := []*graph.ClassNode{n}
	nodes = append(nodes, n.Ancestors()...)
	nodes = append(nodes, n.Descendants()...)
	return m.render(nodes)
}

// GraphDiagram draws every class of g.
func (m *MermaidGenerator) GraphDiagram(g *graph.Graph) string {
	return m.render(g.Nodes())
}

func (m *MermaidGenerator) render(nodes []*graph.ClassNode) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("classDiagram\n")

	included := make(map[graph.NodeID]bool, len(nodes))
	for _, n := range nodes {
		if included[n.ID()] {
			continue
		}
		included[n.ID()] = true
		m.writeClass(&sb, n)
	}

	// Relationships point from base to derived, one line per edge.
	emitted := make(map[graph.NodeID]bool, len(nodes))
	for _, n := range nodes {
		if emitted[n.ID()] {
			continue
		}
		emitted[n.ID()] = true
		for _, e := range n.BaseEdges() {
			if !e.IsResolved() {
				sb.WriteString(fmt.Sprintf("    %s <|-- %s : unresolved\n", sanitizeMermaidID(e.Name), sanitizeMermaidID(n.FullName())))
				continue
			}
			base, ok := baseNode(n, e.Resolved)
			if !ok || !included[base.ID()] {
				continue
			}
			label := e.Access.String()
			if e.Virtual {
				label += " virtual"
			}
			sb.WriteString(fmt.Sprintf("    %s <|-- %s : %s\n", sanitizeMermaidID(base.FullName()), sanitizeMermaidID(n.FullName()), label))
		}
	}

	sb.WriteString("```\n")
	return sb.String()
}

func (m *MermaidGenerator) writeClass(sb *strings.Builder, n *graph.ClassNode) {
	sb.WriteString(fmt.Sprintf("    class %s {\n", sanitizeMermaidID(n.FullName())))
	switch {
	case n.Flags().Has(graph.FlagTemplateSpecialization):
		sb.WriteString("        <<specialization>>\n")
	case n.Flags().Has(graph.FlagTemplate):
		sb.WriteString("        <<template>>\n")
	case !n.IsClass():
		sb.WriteString("        <<struct>>\n")
	}
	if m.Members {
		for _, fn := range n.Functions() {
			sb.WriteString(fmt.Sprintf("        %s%s\n", visibility(fn.Access()), memberLabel(fn)))
		}
	}
	sb.WriteString("    }\n")
}

func baseNode(n *graph.ClassNode, id graph.NodeID) (*graph.ClassNode, bool) {
	for _, b := range n.ResolvedBases() {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

func visibility(a symtab.Access) string {
	switch a {
	case symtab.AccessPublic:
		return "+"
	case symtab.AccessProtected:
		return "#"
	default:
		return "-"
	}
}

func memberLabel(fn *symtab.Function) string {
	label := fn.Name() + "(" + strings.Join(fn.Params, ", ") + ")"
	// Mermaid reads a trailing * as abstract and $ as static.
	switch {
	case fn.IsPureVirtual():
		label += "*"
	case fn.IsStatic():
		label += "$"
	}
	return strings.NewReplacer("<", "~", ">", "~").Replace(label)
}

var mermaidIDUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

func sanitizeMermaidID(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "::", "_")
	id := mermaidIDUnsafe.ReplaceAllString(name, "_")
	if id == "" {
		return "anonymous"
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "C_" + id
	}
	return id
}
