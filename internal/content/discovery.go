// Package content discovers and loads the source documents and assets of a site.
package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/logfields"
)

// Source is a discovered file, identified by its slash-separated path
// relative to the source root.
type Source struct {
	ID   string
	Path string
}

// Inventory is the result of discovery. Every slice is sorted by ID.
type Inventory struct {
	Documents []Source
	Assets    []Source
	Layouts   []Source
}

// DiscoverOptions controls which files discovery considers.
type DiscoverOptions struct {
	// LayoutsDir is listed into Inventory.Layouts. It is normally an
	// underscore directory and therefore never yields documents.
	LayoutsDir string
	// OutputDir is skipped entirely when it lies inside the source root.
	OutputDir string
	// Exclude holds slash glob patterns matched against IDs. A trailing
	// "/**" excludes a whole directory.
	Exclude []string
}

// Discover walks root and classifies files into documents and assets.
// Names beginning with "_" or "." are skipped, as are excluded paths and
// the output directory.
func Discover(root string, opts DiscoverOptions) (*Inventory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve source %s: %w", berrors.ErrIOFailure, root, err)
	}
	absOutput := ""
	if opts.OutputDir != "" {
		if absOutput, err = filepath.Abs(opts.OutputDir); err != nil {
			return nil, fmt.Errorf("%w: resolve output %s: %w", berrors.ErrIOFailure, opts.OutputDir, err)
		}
	}

	inv := &Inventory{}
	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == absRoot {
			return nil
		}
		if d.IsDir() && p == absOutput {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)

		if isHidden(d.Name()) || excluded(id, opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		src := Source{ID: id, Path: p}
		if IsMarkdown(id) {
			inv.Documents = append(inv.Documents, src)
		} else {
			inv.Assets = append(inv.Assets, src)
		}
		slog.Debug("Discovered file", logfields.Source(id), slog.Bool("markdown", IsMarkdown(id)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", berrors.ErrIOFailure, root, err)
	}

	if opts.LayoutsDir != "" {
		if inv.Layouts, err = listLayouts(opts.LayoutsDir); err != nil {
			return nil, err
		}
	}

	sortSources(inv.Documents)
	sortSources(inv.Assets)
	sortSources(inv.Layouts)
	return inv, nil
}

// OutputConflicts maps every document or asset whose output path is shared
// with another source to the sorted IDs of those other sources.
func (inv *Inventory) OutputConflicts() map[string][]string {
	byOutput := make(map[string][]string, len(inv.Documents)+len(inv.Assets))
	for _, group := range [][]Source{inv.Documents, inv.Assets} {
		for _, src := range group {
			out := OutputPath(src.ID)
			byOutput[out] = append(byOutput[out], src.ID)
		}
	}

	conflicts := make(map[string][]string)
	for _, ids := range byOutput {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for _, id := range ids {
			for _, other := range ids {
				if other != id {
					conflicts[id] = append(conflicts[id], other)
				}
			}
		}
	}
	return conflicts
}

func listLayouts(dir string) ([]Source, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("%w: list layouts: %w", berrors.ErrIOFailure, err)
	}
	out := make([]Source, 0, len(matches))
	for _, m := range matches {
		out = append(out, Source{ID: "layout:" + filepath.Base(m), Path: m})
	}
	return out, nil
}

func sortSources(s []Source) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func excluded(id string, patterns []string) bool {
	for _, pat := range patterns {
		if dir, ok := strings.CutSuffix(pat, "/**"); ok {
			if id == dir || strings.HasPrefix(id, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, id); ok {
			return true
		}
		// Patterns without a slash also match a base name anywhere in the tree.
		if !strings.Contains(pat, "/") {
			if ok, _ := path.Match(pat, path.Base(id)); ok {
				return true
			}
		}
	}
	return false
}

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// OutputPath maps a document ID to its slash-separated output path by
// replacing the markdown extension with .html. Asset IDs map to themselves.
func OutputPath(id string) string {
	if !IsMarkdown(id) {
		return id
	}
	return strings.TrimSuffix(id, path.Ext(id)) + ".html"
}

// URL is the site-relative URL of an output path.
func URL(outputPath string) string {
	return "/" + strings.TrimPrefix(outputPath, "/")
}
