package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// GetChangedFiles runs git diff in dir against baseRef and returns the changed
// files with line numbers in the new version. Paths are relative to dir.
func GetChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "-U0", "--relative", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s failed: %w", baseRef, err)
	}

	return parseDiff(output)
}

// FilterByExtension keeps the files whose extension is in exts.
func FilterByExtension(changes []ChangedFile, exts []string) []ChangedFile {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}
	var out []ChangedFile
	for _, c := range changes {
		if allowed[strings.ToLower(filepath.Ext(c.Path))] {
			out = append(out, c)
		}
	}
	return out
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	files, err := diff.ParseMultiFileDiff(output)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	var changes []ChangedFile
	for _, fd := range files {
		// Deleted files have no new version.
		if fd.NewName == "/dev/null" || fd.NewName == "" {
			continue
		}
		current := ChangedFile{Path: strings.TrimPrefix(fd.NewName, "b/"), ChangedLines: []int{}}
		for _, h := range fd.Hunks {
			start, count := int(h.NewStartLine), int(h.NewLines)
			// A pure deletion touches the line it was removed after.
			if count == 0 {
				current.ChangedLines = append(current.ChangedLines, max(start, 1))
				continue
			}
			for i := 0; i < count; i++ {
				current.ChangedLines = append(current.ChangedLines, start+i)
			}
		}
		changes = append(changes, current)
	}
	return changes, nil
}
