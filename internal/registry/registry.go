// Package registry tracks content hashes of fully processed documents in an
// append-only, line-oriented file. The file is loaded once per process; adds
// are flushed on every write so a crash cannot lose a completed entry.
package registry

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Registry is the durable set of already-processed content hashes.
type Registry struct {
	path   string
	seen   map[string]struct{}
	logger *slog.Logger
}

// Open loads the registry file at path, creating it lazily on first Add.
// A missing file is an empty registry, not an error.
func Open(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		path:   path,
		seen:   make(map[string]struct{}),
		logger: logger,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h := strings.TrimSpace(sc.Text())
		if h != "" {
			r.seen[h] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	logger.Debug("registry.loaded", "path", path, "entries", len(r.seen))
	return r, nil
}

// Contains reports whether the content hash has been fully processed before.
func (r *Registry) Contains(hash string) bool {
	_, ok := r.seen[hash]
	return ok
}

// Add appends the hash to the backing file and the in-memory set.
// Calling Add twice for the same hash is safe; a duplicate line is
// tolerated because Contains uses set semantics.
func (r *Registry) Add(hash string) error {
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open registry for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(hash + "\n"); err != nil {
		return fmt.Errorf("append registry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync registry: %w", err)
	}
	r.seen[hash] = struct{}{}
	r.logger.Debug("registry.added", "hash", hash)
	return nil
}

// Len returns the number of distinct hashes loaded.
func (r *Registry) Len() int {
	return len(r.seen)
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}
