package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/pipeline"
)

// DirStats aggregates the outcome of one directory walk.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Done    uint32
	Skipped uint32
	Failed  uint32
}

// IngestDirectory walks root, filters by includeExts (or the default intake
// extensions), skips hidden entries if requested, and processes each matching
// file sequentially. One bad file never stops the walk.
func (i *Intaker) IngestDirectory(ctx context.Context, root string, includeExts []string, skipHidden bool) ([]pipeline.Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	exts := extSet(includeExts)

	var results []pipeline.Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			i.logger().Warn("ingest.walk.error", "path", path, "err", walkErr)
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := exts[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++

		res, err := i.IngestPath(ctx, path)
		results = append(results, res)
		switch {
		case err != nil:
			stats.Failed++
		case res.Status == constants.StatusSkippedDuplicateFile,
			res.Status == constants.StatusSkippedDuplicateContent:
			stats.Skipped++
		default:
			stats.Done++
		}
		return nil
	})
	if err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

func extSet(includeExts []string) map[string]struct{} {
	if len(includeExts) == 0 {
		return constants.AllowedExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
