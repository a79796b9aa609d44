package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"classgraph/internal/analysis"
	"classgraph/internal/git"
	"classgraph/internal/graph"
	"classgraph/internal/index"
	"classgraph/internal/storage"

	"github.com/sirupsen/logrus"
)

// ChangeDetector lists files changed relative to ref inside dir.
type ChangeDetector func(ctx context.Context, dir, ref string) ([]git.ChangedFile, error)

// Sync refreshes the stored snapshot when the working tree has changed.
// A resolved graph is immutable, so any relevant change triggers a full
// rebuild; the git diff only decides whether to rebuild and what to report.
type Sync struct {
	Store      storage.GraphStore
	Indexer    *index.Indexer
	Root       string
	Ref        string
	Extensions []string
	Detect     ChangeDetector
	Out        io.Writer
	Logger     *logrus.Logger
}

// SyncResult describes what one Run did.
type SyncResult struct {
	Changes   []git.ChangedFile
	Rebuilt   bool
	Graph     *graph.Graph
	Impact    *analysis.ImpactReport
	Added     []string // classes absent from the previous snapshot
	Removed   []string // classes that disappeared
	Unchanged bool
}

func NewSync(store storage.GraphStore, idx *index.Indexer, root string, logger *logrus.Logger) *Sync {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sync{
		Store:   store,
		Indexer: idx,
		Root:    root,
		Ref:     "HEAD",
		Detect:  git.GetChangedFiles,
		Out:     io.Discard,
		Logger:  logger,
	}
}

// Run detects changes, rebuilds and saves the graph, then maps the changed
// lines onto classes. force rebuilds even when nothing changed.
func (s *Sync) Run(ctx context.Context, force bool) (*SyncResult, error) {
	changes, err := s.detectChangesStage(ctx)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Changes: changes}
	if len(changes) == 0 && !force {
		fmt.Fprintln(s.Out, "✅ No changes detected.")
		res.Unchanged = true
		return res, nil
	}
	if len(changes) == 0 {
		fmt.Fprintln(s.Out, "🧭 No git changes detected. Running full sync from current codebase (--force).")
	}

	previous, err := s.previousClasses(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	built, err := s.Indexer.BuildGraph(ctx, s.Root)
	if err != nil {
		return nil, fmt.Errorf("graph rebuild failed: %w", err)
	}
	res.Rebuilt = true
	res.Graph = built.Graph
	fmt.Fprintf(s.Out, "📊 Graph rebuilt in %v. Classes=%d, unresolved bases=%d\n",
		time.Since(start).Round(time.Millisecond), built.Graph.Len(), len(built.Graph.Unresolved()))

	if err := s.Store.SaveGraph(ctx, built.Graph, s.Root); err != nil {
		return nil, fmt.Errorf("failed to save updated graph: %w", err)
	}

	if previous != nil {
		res.Added, res.Removed = diffClasses(previous, built.Graph)
		fmt.Fprintf(s.Out, "  -> %d classes added, %d removed\n", len(res.Added), len(res.Removed))
	}

	if len(changes) > 0 {
		res.Impact, err = s.impactAnalysisStage(built.Graph, changes)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Sync) detectChangesStage(ctx context.Context) ([]git.ChangedFile, error) {
	changes, err := s.Detect(ctx, s.Root, s.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get git changes: %w", err)
	}
	if len(s.Extensions) > 0 {
		changes = git.FilterByExtension(changes, s.Extensions)
	}
	if len(changes) > 0 {
		fmt.Fprintf(s.Out, "📝 Detected %d changed files.\n", len(changes))
	}
	return changes, nil
}

// previousClasses returns the class names of the stored snapshot, or nil
// when there is none.
func (s *Sync) previousClasses(ctx context.Context) (map[string]bool, error) {
	g, err := s.Store.LoadGraph(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return classNames(g), nil
}

func (s *Sync) impactAnalysisStage(g *graph.Graph, changes []git.ChangedFile) (*analysis.ImpactReport, error) {
	fmt.Fprintln(s.Out, "🔍 Analyzing impact...")
	report, err := analysis.NewAnalyzer(g).AnalyzeImpact(s.Root, changes)
	if err != nil {
		return nil, fmt.Errorf("impact analysis failed: %w", err)
	}
	fmt.Fprintf(s.Out, "  -> %d classes directly affected\n", len(report.DirectlyAffected))
	fmt.Fprintf(s.Out, "  -> %d classes indirectly affected (derived)\n", len(report.IndirectlyAffected))
	s.Logger.WithFields(logrus.Fields{
		"direct":   len(report.DirectlyAffected),
		"indirect": len(report.IndirectlyAffected),
	}).Debug("impact analysis done")
	return report, nil
}

func classNames(g *graph.Graph) map[string]bool {
	out := make(map[string]bool, g.Len())
	for _, n := range g.Nodes() {
		out[n.FullName()] = true
	}
	return out
}

func diffClasses(previous map[string]bool, g *graph.Graph) (added, removed []string) {
	current := classNames(g)
	for name := range current {
		if !previous[name] {
			added = append(added, name)
		}
	}
	for name := range previous {
		if !current[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
