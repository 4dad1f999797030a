package buildcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the cache database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryCache, "create cache directory").
				WithContext("path", dbPath).Build()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCache, "open build cache").
			WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryCache, "initialize build cache schema").
			WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		source TEXT PRIMARY KEY,
		key TEXT NOT NULL,
		output TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_finished ON builds(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the cached page for a source ID.
func (s *SQLiteStore) Lookup(ctx context.Context, source string) (Page, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p       Page
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT source, key, output, updated_at FROM pages WHERE source = ?", source,
	).Scan(&p.Source, &p.Key, &p.Output, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, fmt.Errorf("query page %s: %w", source, err)
	}
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, true, nil
}

// Put inserts or replaces a page entry.
func (s *SQLiteStore) Put(ctx context.Context, page Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page.UpdatedAt.IsZero() {
		page.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (source, key, output, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET key = excluded.key, output = excluded.output, updated_at = excluded.updated_at`,
		page.Source, page.Key, page.Output, page.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", page.Source, err)
	}
	return nil
}

// Delete removes a page entry. Deleting an absent entry is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE source = ?", source); err != nil {
		return fmt.Errorf("delete page %s: %w", source, err)
	}
	return nil
}

// RecordBuild stores a build record.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, finished_at, rendered, skipped, failed, outcome) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(), rec.Rendered, rec.Skipped, rec.Failed, rec.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert build %s: %w", rec.ID, err)
	}
	return nil
}

// LastBuild returns the build with the latest finish time.
func (s *SQLiteStore) LastBuild(ctx context.Context) (BuildRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec               BuildRecord
		started, finished int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, rendered, skipped, failed, outcome FROM builds ORDER BY finished_at DESC, rowid DESC LIMIT 1",
	).Scan(&rec.ID, &started, &finished, &rec.Rendered, &rec.Skipped, &rec.Failed, &rec.Outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return BuildRecord{}, false, nil
	}
	if err != nil {
		return BuildRecord{}, false, fmt.Errorf("query last build: %w", err)
	}
	rec.StartedAt = time.Unix(0, started).UTC()
	rec.FinishedAt = time.Unix(0, finished).UTC()
	return rec, true, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
