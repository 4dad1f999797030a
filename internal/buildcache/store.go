// Package buildcache persists incremental build state: the cache key each
// page was last rendered with, and a record of every build.
package buildcache

import (
	"context"
	"time"
)

// Page is the cached state of one rendered document.
type Page struct {
	Source    string
	Key       string
	Output    string
	UpdatedAt time.Time
}

// BuildRecord summarizes one build.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Rendered   int
	Skipped    int
	Failed     int
	Outcome    string
}

// Store defines the interface for the build cache.
type Store interface {
	// Lookup returns the cached page for a source ID. Absent entries report false.
	Lookup(ctx context.Context, source string) (Page, bool, error)

	// Put records the state a page was rendered with.
	Put(ctx context.Context, page Page) error

	// Delete forgets a page, forcing the next incremental build to render it.
	Delete(ctx context.Context, source string) error

	// RecordBuild appends a build record.
	RecordBuild(ctx context.Context, rec BuildRecord) error

	// LastBuild returns the most recently finished build.
	LastBuild(ctx context.Context) (BuildRecord, bool, error)

	// Close releases resources.
	Close() error
}

// NoopStore never caches anything. It is used when incremental builds are off.
type NoopStore struct{}

func (NoopStore) Lookup(context.Context, string) (Page, bool, error) {
	return Page{}, false, nil
}

func (NoopStore) Put(context.Context, Page) error { return nil }

func (NoopStore) Delete(context.Context, string) error { return nil }

func (NoopStore) RecordBuild(context.Context, BuildRecord) error { return nil }

func (NoopStore) LastBuild(context.Context) (BuildRecord, bool, error) {
	return BuildRecord{}, false, nil
}

func (NoopStore) Close() error { return nil }
