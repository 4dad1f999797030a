package buildcache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_PageLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	_, ok, err := store.Lookup(ctx, "index.md")
	require.NoError(t, err)
	assert.False(t, ok)

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, Page{Source: "index.md", Key: "k1", Output: "index.html", UpdatedAt: when}))

	page, ok, err := store.Lookup(ctx, "index.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Page{Source: "index.md", Key: "k1", Output: "index.html", UpdatedAt: when}, page)

	require.NoError(t, store.Put(ctx, Page{Source: "index.md", Key: "k2", Output: "index.html"}))
	page, _, err = store.Lookup(ctx, "index.md")
	require.NoError(t, err)
	assert.Equal(t, "k2", page.Key)

	require.NoError(t, store.Delete(ctx, "index.md"))
	require.NoError(t, store.Delete(ctx, "index.md"))
	_, ok, err = store.Lookup(ctx, "index.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Builds(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	_, ok, err := store.LastBuild(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{ID: "b1", StartedAt: base, FinishedAt: base.Add(time.Second), Rendered: 3, Outcome: "success"}))
	require.NoError(t, store.RecordBuild(ctx, BuildRecord{ID: "b2", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second), Skipped: 3, Failed: 1, Outcome: "failed"}))

	last, ok, err := store.LastBuild(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b2", last.ID)
	assert.Equal(t, 3, last.Skipped)
	assert.Equal(t, 1, last.Failed)
	assert.Equal(t, "failed", last.Outcome)
	assert.True(t, base.Add(time.Minute).Equal(last.StartedAt))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sitegen", "cache.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, Page{Source: "a.md", Key: "k", Output: "a.html"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	page, ok, err := reopened.Lookup(ctx, "a.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "k", page.Key)
}

func TestNoopStore(t *testing.T) {
	var s Store = NoopStore{}
	ctx := t.Context()

	require.NoError(t, s.Put(ctx, Page{Source: "a.md", Key: "k"}))
	_, ok, err := s.Lookup(ctx, "a.md")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.LastBuild(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Close())
}
