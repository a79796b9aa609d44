package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"classgraph/internal/extractor"
	"classgraph/internal/ir"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// DefaultExtensions are the C++ header and source suffixes scanned when none are configured.
var DefaultExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".cpp", ".cc", ".cxx"}

// DefaultIgnored are directory names skipped during the walk.
var DefaultIgnored = []string{".git", "build", "node_modules", "third_party", "vendor"}

// Options tunes which files are scanned and how many are parsed at once.
// Zero values fall back to the defaults above and 2x NumCPU workers.
type Options struct {
	Extensions []string
	Ignored    []string
	Workers    int
}

// Crawler scans a directory for C++ files and extracts them in parallel.
type Crawler struct {
	extractor  *extractor.Extractor
	ignored    map[string]bool
	extensions map[string]bool
	workers    int
	logger     *logrus.Logger
}

// ScanStats summarizes one ScanProject call.
type ScanStats struct {
	Files     int
	Extracted int
	Failed    int
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, opts Options, logger *logrus.Logger) *Crawler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ignored := opts.Ignored
	if len(ignored) == 0 {
		ignored = DefaultIgnored
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	c := &Crawler{
		extractor:  ext,
		ignored:    make(map[string]bool, len(ignored)),
		extensions: make(map[string]bool, len(exts)),
		workers:    workers,
		logger:     logger,
	}
	for _, name := range ignored {
		c.ignored[name] = true
	}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		c.extensions[e] = true
	}
	return c
}

// Files lists the files under root that would be scanned, in lexical order.
func (c *Crawler) Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && c.ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if c.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// ScanProject extracts every matching file under root. Files are parsed
// concurrently but onUnit is called sequentially in path order once all of
// them are done. A file that fails to extract is logged and skipped.
func (c *Crawler) ScanProject(ctx context.Context, root string, onUnit func(*ir.TranslationUnit)) (ScanStats, error) {
	files, err := c.Files(root)
	if err != nil {
		return ScanStats{}, err
	}

	stats := ScanStats{Files: len(files)}
	results := make([]*ir.TranslationUnit, len(files))
	var failed atomic.Int64

	p := pool.New().WithMaxGoroutines(c.workers)
	for i, path := range files {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			unit, err := c.extractor.ExtractFromFile(ctx, path)
			if err != nil {
				failed.Add(1)
				c.logger.WithError(err).WithField("file", path).Warn("skipping file")
				return
			}
			results[i] = unit
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	stats.Failed = int(failed.Load())
	for _, unit := range results {
		if unit == nil {
			continue
		}
		stats.Extracted++
		onUnit(unit)
	}
	c.logger.WithFields(logrus.Fields{
		"root":      root,
		"files":     stats.Files,
		"extracted": stats.Extracted,
		"failed":    stats.Failed,
	}).Debug("scan complete")
	return stats, nil
}
