// Package history records checkspec runs in a SQLite database so that
// recent results can be listed with `checkspec history`.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	files       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Run is one recorded invocation of the runner over one or more suites.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Passed    int
	Failed    int
	Skipped   int
}

// Succeeded reports whether the run had no failing checks.
func (r Run) Succeeded() bool {
	return r.Failed == 0
}

// Store is a run history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database. The dsn is a file
// path, optionally prefixed with "sqlite://" or "sqlite:".
func Open(dsn string) (*Store, error) {
	path := parseDSN(dsn)
	if path == "" {
		return nil, errors.New("history: empty database path")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run. A zero ID is replaced with a fresh random one, and the
// stored run is returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, files, passed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.StartedAt.UnixMilli(),
		run.Duration.Milliseconds(),
		run.Files, run.Passed, run.Failed, run.Skipped,
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, files, passed, failed, skipped
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			id               string
			startedAt, durMS int64
			run              Run
		)
		if err := rows.Scan(&id, &startedAt, &durMS, &run.Files, &run.Passed, &run.Failed, &run.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run.StartedAt = time.UnixMilli(startedAt)
		run.Duration = time.Duration(durMS) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// parseDSN strips the optional sqlite scheme from a connection string.
func parseDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return path
	}
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return path
	}
	return dsn
}
