// Package ingest feeds documents into the pipeline from the filesystem:
// single files, directory walks, and a watch mode for drop folders.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Shubham-Nemade-24/certagent/internal/pipeline"
)

// Intaker reads files and hands them to the pipeline one at a time.
type Intaker struct {
	Pipeline *pipeline.Pipeline
	Logger   *slog.Logger
}

func (i *Intaker) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.Default()
	}
	return i.Logger
}

// IngestPath processes a single file on disk.
func (i *Intaker) IngestPath(ctx context.Context, path string) (pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Result{Source: path}, fmt.Errorf("read %s: %w", path, err)
	}
	return i.Pipeline.Process(ctx, pipeline.Intake{
		Data:     data,
		Filename: filepath.Base(path),
	})
}
