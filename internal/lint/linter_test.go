package lint

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/config"
	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

func loadSite(t *testing.T, files map[string]string) *build.Site {
	t.Helper()
	dir := t.TempDir()
	for rel, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	}
	cfg := config.Default()
	cfg.SetSource(dir)
	site, err := build.LoadSite(cfg, nil)
	require.NoError(t, err)
	return site
}

func rules(result *Result) []string {
	out := make([]string, 0, len(result.Issues))
	for _, i := range result.Issues {
		out = append(out, i.FilePath+":"+i.Rule)
	}
	return out
}

func TestLint_CleanSite(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"index.md":           "---\nlayout: page\n---\nSee [guide](docs/guide.md) and ![logo](img/logo.png).\n",
		"docs/guide.md":      "---\nlayout: page\n---\nBack [home](../index.html#top).\n",
		"img/logo.png":       "png",
	})

	result := NewLinter(Config{}).Lint(site)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 2, result.FilesTotal)
	require.NoError(t, result.Err())
}

func TestLint_ReportsDocumentErrors(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"no-fm.md":           "# Missing\n",
		"bad-layout.md":      "---\nlayout: nope\n---\nx",
		"broken.md":          "---\nlayout: page\n---\n[gone](missing.md) [ext](https://example.com) [up](../../etc/passwd)\n",
		"wip.md":             "---\nlayout: page\ndraft: true\n---\nx",
	})

	result := NewLinter(Config{}).Lint(site)
	assert.Equal(t, []string{
		"bad-layout.md:layout",
		"broken.md:broken-link",
		"broken.md:broken-link",
		"no-fm.md:front-matter",
		"wip.md:draft",
	}, rules(result))
	assert.Equal(t, 2, result.ErrorCount())
	assert.Equal(t, 2, result.WarningCount())

	err := result.Err()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLint_StrictPromotesWarnings(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\n[gone](missing.md)\n",
	})

	relaxed := NewLinter(Config{}).Lint(site)
	require.NoError(t, relaxed.Err())
	assert.Equal(t, 1, relaxed.WarningCount())

	strict := NewLinter(Config{Strict: true}).Lint(site)
	require.Error(t, strict.Err())
	assert.Equal(t, 1, strict.ErrorCount())
}

func TestLint_QuietHidesWarnings(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\n[gone](missing.md)\n",
	})
	result := NewLinter(Config{Quiet: true}).Lint(site)
	assert.Empty(t, result.Issues)
}

func TestLint_LinkWithSpacesIsReported(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"a.md":               "---\nlayout: page\n---\n[x](my file.md)\n",
	})
	result := NewLinter(Config{}).Lint(site)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0].Message, "my file.md")
}

func TestLint_LinksToPagesOfEveryMarkdownExtension(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"index.md":           "---\nlayout: page\n---\n[a](notes.html) [b](docs/guide.html) [c](gone.html)\n",
		"notes.mdown":        "---\nlayout: page\n---\nx",
		"docs/guide.mkd":     "---\nlayout: page\n---\nx",
	})

	result := NewLinter(Config{}).Lint(site)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "broken-link", result.Issues[0].Rule)
	assert.Contains(t, result.Issues[0].Message, "gone.html")
}

func TestLint_ReportsOutputConflicts(t *testing.T) {
	site := loadSite(t, map[string]string{
		"_layouts/page.html": "{{ content }}",
		"index.md":           "---\nlayout: page\n---\nx",
		"index.html":         "raw",
	})

	result := NewLinter(Config{}).Lint(site)
	assert.Equal(t, []string{"index.md:output-conflict"}, rules(result))
	require.Error(t, result.Err())
}

func TestFormatters(t *testing.T) {
	result := &Result{
		FilesTotal: 2,
		Issues: []Issue{
			{FilePath: "a.md", Severity: SeverityError, Rule: "layout", Message: `layout not found: "x"`},
			{FilePath: "b.md", Severity: SeverityWarning, Rule: "broken-link", Message: "broken inline link", Fix: "create c.md"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, NewFormatter("text").Format(&text, result, "site"))
	out := text.String()
	assert.Contains(t, out, "Checking site in: site")
	assert.Contains(t, out, `ERROR [layout]: layout not found: "x"`)
	assert.Contains(t, out, "Fix: create c.md")
	assert.Contains(t, out, "2 documents checked")
	assert.Contains(t, out, "1 error (fails the build)")

	var js bytes.Buffer
	require.NoError(t, NewFormatter("json").Format(&js, result, "site"))
	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.ErrorCount)
	assert.Equal(t, 1, decoded.WarningCount)
	require.Len(t, decoded.Issues, 2)
	assert.Equal(t, "WARNING", decoded.Issues[1].Severity)
}

func TestFormatter_CleanResult(t *testing.T) {
	var text bytes.Buffer
	require.NoError(t, TextFormatter{}.Format(&text, &Result{FilesTotal: 1}, "."))
	assert.Contains(t, text.String(), "✓ All documents pass.")
	assert.Contains(t, text.String(), "1 document checked")
}
