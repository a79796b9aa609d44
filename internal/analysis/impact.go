package analysis

import (
	"path/filepath"

	"classgraph/internal/git"
	"classgraph/internal/graph"
)

// ImpactReport summarizes the classes affected by changes. Direct classes
// contain a changed line; indirect ones derive from a direct class.
type ImpactReport struct {
	DirectlyAffected   []*graph.ClassNode
	IndirectlyAffected []*graph.ClassNode
}

// Analyzer performs impact analysis on the class graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact maps changed lines to classes. Relative change paths are
// interpreted against root, the directory the graph was scanned from.
func (a *Analyzer) AnalyzeImpact(root string, changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.ClassNode{},
		IndirectlyAffected: []*graph.ClassNode{},
	}

	byFile := make(map[string][]*graph.ClassNode)
	for _, n := range a.g.Nodes() {
		byFile[filepath.Clean(n.Loc.File)] = append(byFile[filepath.Clean(n.Loc.File)], n)
	}

	seen := make(map[graph.NodeID]bool)
	for _, change := range changes {
		path := change.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		for _, n := range byFile[filepath.Clean(path)] {
			if !seen[n.ID()] && isAffected(n, change.ChangedLines) {
				report.DirectlyAffected = append(report.DirectlyAffected, n)
				seen[n.ID()] = true
			}
		}
	}

	for _, n := range report.DirectlyAffected {
		for _, d := range n.Descendants() {
			if !seen[d.ID()] {
				report.IndirectlyAffected = append(report.IndirectlyAffected, d)
				seen[d.ID()] = true
			}
		}
	}

	return report, nil
}

func isAffected(n *graph.ClassNode, lines []int) bool {
	for _, line := range lines {
		if n.Loc.Contains(line) {
			return true
		}
	}
	return false
}
