package storage

import (
	"context"
	"errors"
	"time"

	"classgraph/internal/graph"
)

// ErrNoSnapshot is returned when the database holds no saved graph.
var ErrNoSnapshot = errors.New("storage: no snapshot saved")

// Store persists class graph snapshots.
type Store interface {
	GraphStore
	Close() error
}

// SnapshotInfo describes the saved snapshot.
type SnapshotInfo struct {
	Root    string
	SavedAt time.Time
	Classes int
	Edges   int
}

// GraphStore defines operations for persisting the class graph.
type GraphStore interface {
	// SaveGraph replaces the stored snapshot with g. root is the scanned directory.
	SaveGraph(ctx context.Context, g *graph.Graph, root string) error

	// LoadGraph rebuilds the symbol table of the last snapshot. The returned
	// graph is unresolved; run the resolver before querying it.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// Info returns metadata about the last snapshot.
	Info(ctx context.Context) (SnapshotInfo, error)

	// DerivedOf lists the classes directly derived from the named class,
	// using the resolved edges recorded at save time.
	DerivedOf(ctx context.Context, fullName string) ([]string, error)
}
