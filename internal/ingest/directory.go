package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// ScanDirectory lists the ingestible files under root in lexical order.
func ScanDirectory(root string, skipHidden bool) ([]string, DirStats, error) {
	var paths []string
	stats, err := walk(root, skipHidden, nil, func(path string) bool {
		paths = append(paths, path)
		return true
	})
	return paths, stats, err
}

// IngestDirectory uploads every ingestible file under root. Per-file
// failures are reported in the results and do not stop the walk.
func (i *Inbox) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	var results []Result
	var dedup uint32
	stats, err := walk(root, skipHidden, i.excluded, func(path string) bool {
		if ctx.Err() != nil {
			return false
		}
		r, err := i.IngestPath(ctx, path)
		results = append(results, r)
		if r.Deduplicated {
			dedup++
		}
		return err == nil
	})
	stats.Deduplicated = dedup
	return results, stats, err
}

// walk calls visit for each matching file; visit reports success.
func walk(root string, skipHidden bool, excluded func(string) bool, visit func(path string) bool) (DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return stats, errors.New("root path is required")
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && excluded != nil && excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		if visit(path) {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}
	return stats, nil
}

// IsHidden reports whether the base name starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
