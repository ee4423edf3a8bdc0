// Package history keeps a durable log of every pipeline run in a local
// SQLite database: one row per intake, with the terminal status and the raw
// model response when one was produced.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline run.
type Run struct {
	ID          uuid.UUID
	Source      string
	FileHash    string
	ContentHash string
	Status      string
	State       string
	RawResponse string
	ErrorMsg    string
	CreatedAt   time.Time
}

// Store persists runs. It owns the underlying database handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	file_hash     TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	state         TEXT NOT NULL,
	raw_response  TEXT NOT NULL DEFAULT '',
	error_msg     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_file_hash ON runs(file_hash);
`

// Open opens (creating if needed) the history database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record inserts one run. A zero ID gets a fresh UUID; a zero CreatedAt gets
// the current time.
func (s *Store) Record(ctx context.Context, run Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, file_hash, content_hash, status, state, raw_response, error_msg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Source, run.FileHash, run.ContentHash,
		run.Status, run.State, run.RawResponse, run.ErrorMsg, run.CreatedAt,
	)
	if err != nil {
		s.log.Error("history record failed", "source", run.Source, "err", err)
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	s.log.Info("history recorded", "run_id", run.ID, "source", run.Source, "status", run.Status)
	return run.ID, nil
}

// List returns the most recent runs, newest first, up to limit
// (0 means no limit).
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, source, file_hash, content_hash, status, state, raw_response, error_msg, created_at
	      FROM runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var id string
		if err := rows.Scan(&id, &r.Source, &r.FileHash, &r.ContentHash,
			&r.Status, &r.State, &r.RawResponse, &r.ErrorMsg, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
