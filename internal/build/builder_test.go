package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/buildcache"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/notify"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	}
}

func newConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, files)
	cfg := config.Default()
	cfg.SetSource(dir)
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func assertNoOutput(t *testing.T, cfg *config.Config, rel string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(cfg.OutputDir(), filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err), "expected no output for %s", rel)
}

func TestBuild_WrapsFragmentInLayout(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html":    "<main>{{ content }}</main>",
		"posts/generators.md":   "---\nlayout: page\n---\n## Generators\n\nHello",
		"posts/_drafts/skip.md": "ignored",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, 1, report.Rendered)
	assert.Equal(t, "<main><h2>Generators</h2>\n<p>Hello</p>\n</main>", readOutput(t, cfg, "posts/generators.html"))
}

func TestBuild_PlainTextBecomesParagraph(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/bare.html": "{{ content }}",
		"note.md":            "---\nlayout: bare\n---\nJust some text.\n",
	})

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>Just some text.</p>\n", readOutput(t, cfg, "note.html"))
}

func TestBuild_UnknownLayout(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "<main>{{ content }}</main>",
		"good.md":            "---\nlayout: page\n---\nok",
		"bad.md":             "---\nlayout: missing\n---\nnope",
	})

	report, err := New(cfg).Build(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, berrors.ErrLayoutNotFound)

	var failure *berrors.BuildFailure
	require.True(t, errors.As(err, &failure))
	require.Len(t, failure.Failures, 1)
	assert.Equal(t, "bad.md", failure.Failures[0].Path)

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, 1, report.Rendered)
	assertNoOutput(t, cfg, "bad.html")
	assert.Contains(t, readOutput(t, cfg, "good.html"), "<p>ok</p>")
}

func TestBuild_MissingFrontMatter(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"plain.md":           "# No front matter\n",
	})

	_, err := New(cfg).Build(context.Background())
	require.ErrorIs(t, err, berrors.ErrMalformedFrontMatter)
	assertNoOutput(t, cfg, "plain.html")
}

func TestBuild_DefaultLayout(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/default.html": "<div>{{ content }}</div>",
		"a.md":                  "---\ntitle: A\n---\nbody",
	})
	cfg.Defaults.Layout = "default"

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<div><p>body</p>\n</div>", readOutput(t, cfg, "a.html"))
}

func TestBuild_IsIdempotent(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "<title>{{ page.title }}</title>{{ content }}",
		"index.md":           "---\nlayout: page\ntitle: Home\n---\n# Welcome\n",
		"docs/guide.md":      "---\nlayout: page\n---\nSee [home](../index.md).\n",
		"img/logo.svg":       "<svg/>",
	})

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	first := snapshot(t, cfg.OutputDir())

	_, err = New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, cfg.OutputDir()))
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	}))
	return out
}

func TestBuild_DocumentsShareLayoutIndependently(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "<h1>{{ page.title }}</h1>{{ content }}",
		"one.md":             "---\nlayout: page\ntitle: One\n---\nfirst",
		"two.md":             "---\nlayout: page\ntitle: Two\n---\nsecond",
	})
	cfg.Build.Workers = 2

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, "<h1>One</h1><p>first</p>\n", readOutput(t, cfg, "one.html"))
	assert.Equal(t, "<h1>Two</h1><p>second</p>\n", readOutput(t, cfg, "two.html"))

	require.Len(t, report.Pages, 2)
	assert.Equal(t, "one.md", report.Pages[0].ID)
	assert.Equal(t, "two.md", report.Pages[1].ID)
}

func TestBuild_PageAndSiteVariables(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ site.title }}|{{ page.title }}|{{ page.url }}|{{ site.author }}|{{ content }}",
		"posts/a.md":         "---\nlayout: page\ntitle: Fish & Chips\n---\n",
	})
	cfg.Site.Title = "My Site"
	cfg.Site.Params = map[string]any{"author": "Ada"}

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "My Site|Fish &amp; Chips|/posts/a.html|Ada|", readOutput(t, cfg, "posts/a.html"))
}

func TestBuild_RemovesStaleOutputOfFailedDocument(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\nv1",
	})
	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>v1</p>\n", readOutput(t, cfg, "a.html"))

	writeTree(t, cfg.Source, map[string]string{"a.md": "---\nlayout: gone\n---\nv2"})
	_, err = New(cfg).Build(context.Background())
	require.ErrorIs(t, err, berrors.ErrLayoutNotFound)
	assertNoOutput(t, cfg, "a.html")
}

func TestBuild_OutputConflicts(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		output  string
		sources []string
	}{
		{
			name: "document and asset",
			files: map[string]string{
				"index.md":   "---\nlayout: page\n---\nrendered",
				"index.html": "RAW ASSET",
			},
			output:  "index.html",
			sources: []string{"index.html", "index.md"},
		},
		{
			name: "two documents, one broken",
			files: map[string]string{
				"a.md":       "---\nlayout: page\n---\nfine",
				"a.markdown": "---\nlayout: nope\n---\nbroken",
			},
			output:  "a.html",
			sources: []string{"a.markdown", "a.md"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{
				"_layouts/page.html": "{{ content }}",
				"other.md":           "---\nlayout: page\n---\nok",
			}
			for k, v := range tt.files {
				files[k] = v
			}
			cfg := newConfig(t, files)
			// A previous build left the shared output behind.
			writeTree(t, cfg.OutputDir(), map[string]string{tt.output: "stale"})

			for _, workers := range []int{1, 4} {
				cfg.Build.Workers = workers
				report, err := New(cfg).Build(context.Background())
				require.Error(t, err)
				require.ErrorIs(t, err, berrors.ErrOutputConflict)
				require.ErrorIs(t, err, berrors.ErrIOFailure)

				failed := make([]string, 0, len(report.Failures))
				for _, f := range report.Failures {
					failed = append(failed, f.Path)
					assert.Contains(t, f.Err.Error(), tt.output)
				}
				assert.Equal(t, tt.sources, failed)
				assertNoOutput(t, cfg, tt.output)
				assert.Equal(t, "<p>ok</p>\n", readOutput(t, cfg, "other.html"))
			}
		})
	}
}

func TestBuild_Drafts(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"wip.md":             "---\nlayout: page\ndraft: true\n---\nsoon",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drafts)
	assertNoOutput(t, cfg, "wip.html")

	cfg.Build.Drafts = true
	report, err = New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rendered)
	assert.Equal(t, "<p>soon</p>\n", readOutput(t, cfg, "wip.html"))
}

func TestBuild_CopiesAssets(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"css/site.css":       "body{}",
		".hidden/secret.txt": "no",
	})

	report, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, "body{}", readOutput(t, cfg, "css/site.css"))
	assertNoOutput(t, cfg, ".hidden/secret.txt")
}

func TestBuild_Clean(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\na",
	})
	writeTree(t, cfg.OutputDir(), map[string]string{"leftover.html": "old"})
	cfg.Build.Clean = true

	_, err := New(cfg).Build(context.Background())
	require.NoError(t, err)
	assertNoOutput(t, cfg, "leftover.html")
	assert.Equal(t, "<p>a</p>\n", readOutput(t, cfg, "a.html"))
}

func TestBuild_IncrementalSkipsUnchanged(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\na",
		"b.md":               "---\nlayout: page\n---\nb",
	})
	cfg.Build.Incremental = true

	store, err := buildcache.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	report, err := New(cfg).WithCache(store).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rendered)

	report, err = New(cfg).WithCache(store).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Rendered)
	assert.Equal(t, 2, report.Skipped)

	writeTree(t, cfg.Source, map[string]string{"b.md": "---\nlayout: page\n---\nb2"})
	report, err = New(cfg).WithCache(store).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rendered)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "<p>b2</p>\n", readOutput(t, cfg, "b.html"))

	// A layout change invalidates every page using it.
	writeTree(t, cfg.Source, map[string]string{"_layouts/page.html": "<main>{{ content }}</main>"})
	report, err = New(cfg).WithCache(store).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rendered)

	// Deleted output is re-rendered even when the key matches.
	require.NoError(t, os.Remove(filepath.Join(cfg.OutputDir(), "a.html")))
	report, err = New(cfg).WithCache(store).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rendered)

	last, ok, err := store.LastBuild(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.BuildID, last.ID)
	assert.Equal(t, string(StatusSuccess), last.Outcome)
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\na",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(cfg).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.True(t, report.Status.IsTerminal())
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.BuildEvent
}

func (r *recordingNotifier) PublishBuild(_ context.Context, ev notify.BuildEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func TestBuild_PublishesEvent(t *testing.T) {
	cfg := newConfig(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"bad.md":             "---\nlayout: nope\n---\nx",
	})
	n := &recordingNotifier{}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	report, err := New(cfg).WithNotifier(n).WithClock(func() time.Time { return start }).Build(context.Background())
	require.Error(t, err)

	require.Len(t, n.events, 1)
	ev := n.events[0]
	assert.Equal(t, report.BuildID, ev.BuildID)
	assert.Equal(t, "failed", ev.Outcome)
	assert.Equal(t, start, ev.StartedAt)
	require.Len(t, ev.Failures, 1)
	assert.Equal(t, "bad.md", ev.Failures[0].Path)
	assert.Contains(t, ev.Failures[0].Error, "layout not found")
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusSuccess.IsSuccess())
	assert.False(t, StatusCanceled.IsSuccess())
}
