// Package store is the content-addressed file store for intake artifacts.
// Files are named <fileHash>.<ext>, so byte-identical re-uploads land on the
// same path and are detected before any text extraction runs.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Shubham-Nemade-24/certagent/constants"
	"github.com/Shubham-Nemade-24/certagent/internal/hashing"
)

// SavedFile describes the stored artifact for one intake.
type SavedFile struct {
	Path     string
	FileHash string
	Ext      string
	Already  bool // a file with this exact hash was already stored
}

// Store writes intake bytes into a single content-addressed directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Save writes data under its content hash. If a file with the same hash is
// already present, nothing is written and Already is true. Storage is
// immutable: an existing path is never overwritten.
func (s *Store) Save(data []byte, declaredName string) (SavedFile, error) {
	if len(data) == 0 {
		return SavedFile{}, fmt.Errorf("empty file: %q", declaredName)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SavedFile{}, fmt.Errorf("create store dir: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(declaredName))
	if ext == "" {
		ext = "bin"
	}
	hash := hashing.HashBytes(data)
	path := filepath.Join(s.dir, hash+"."+ext)

	if _, err := os.Stat(path); err == nil {
		s.logger.Info("store.duplicate_file", "path", path, "name", declaredName)
		return SavedFile{Path: path, FileHash: hash, Ext: ext, Already: true}, nil
	} else if !os.IsNotExist(err) {
		return SavedFile{}, fmt.Errorf("stat stored file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SavedFile{}, fmt.Errorf("write stored file: %w", err)
	}
	s.logger.Debug("store.saved", "path", path, "bytes", len(data))
	return SavedFile{Path: path, FileHash: hash, Ext: ext, Already: false}, nil
}
