package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/content"
	"github.com/rajesh1993/sitegen/internal/gitinfo"
	"github.com/rajesh1993/sitegen/internal/layout"
	"github.com/rajesh1993/sitegen/internal/markdown"
)

// Site is the read-only state shared by every document of one build.
// It is safe for concurrent use.
type Site struct {
	Config    *config.Config
	Layouts   *layout.Registry
	Inventory *content.Inventory
	// Vars are exposed to layouts as {{ site.<key> }}.
	Vars map[string]string

	renderer  *markdown.Renderer
	git       *gitinfo.Resolver
	digest    string
	conflicts map[string][]string
}

// LoadSite loads the layouts and discovers the sources described by cfg.
// A nil git resolver disables last-modified lookups.
func LoadSite(cfg *config.Config, git *gitinfo.Resolver) (*Site, error) {
	layouts, err := layout.LoadRegistry(cfg.LayoutsPath())
	if err != nil {
		return nil, err
	}
	inv, err := content.Discover(cfg.Source, content.DiscoverOptions{
		LayoutsDir: cfg.LayoutsPath(),
		OutputDir:  cfg.OutputDir(),
		Exclude:    cfg.Exclude,
	})
	if err != nil {
		return nil, err
	}
	if git == nil {
		git = gitinfo.Disabled()
	}

	s := &Site{
		Config:    cfg,
		Layouts:   layouts,
		Inventory: inv,
		Vars:      siteVars(cfg.Site),
		renderer:  markdown.NewRenderer(MarkdownOptions(cfg.Markdown)),
		git:       git,
		conflicts: inv.OutputConflicts(),
	}
	s.digest = s.configDigest()
	return s, nil
}

// MarkdownOptions maps the markdown config section onto renderer options.
func MarkdownOptions(mc config.MarkdownConfig) markdown.Options {
	return markdown.Options{
		UnsafeHTML: mc.UnsafeHTML,
		HeadingIDs: mc.HeadingIDs,
		Footnotes:  mc.Footnotes,
		Sanitize:   mc.Sanitize,
	}
}

func siteVars(sc config.SiteConfig) map[string]string {
	vars := make(map[string]string, len(sc.Params)+3)
	for k, v := range sc.Params {
		if s, ok := content.ScalarString(v); ok {
			vars[k] = s
		}
	}
	vars["title"] = sc.Title
	vars["base_url"] = sc.BaseURL
	vars["description"] = sc.Description
	return vars
}

// configDigest covers every setting that changes rendered output without
// changing a document or layout.
func (s *Site) configDigest() string {
	keys := make([]string, 0, len(s.Vars))
	for k := range s.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		_, _ = fmt.Fprintf(h, "site.%s=%q\n", k, s.Vars[k])
	}
	_, _ = fmt.Fprintf(h, "markdown=%+v\n", s.Config.Markdown)
	_, _ = fmt.Fprintf(h, "default_layout=%q git=%t\n", s.Config.Defaults.Layout, s.git.Enabled())
	return hex.EncodeToString(h.Sum(nil))
}

// OutputConflict returns an error wrapping ErrOutputConflict when the
// output path of the source id is shared with another document or asset.
func (s *Site) OutputConflict(id string) error {
	others, ok := s.conflicts[id]
	if !ok {
		return nil
	}
	return fmt.Errorf("%w: %s is also produced by %s",
		berrors.ErrOutputConflict, content.OutputPath(id), strings.Join(others, ", "))
}

// OutputFile is the filesystem path of a slash-separated output path.
func (s *Site) OutputFile(outputPath string) string {
	return filepath.Join(s.Config.OutputDir(), filepath.FromSlash(outputPath))
}

// LoadDocument reads and parses one discovered document.
func (s *Site) LoadDocument(src content.Source) (*content.Document, error) {
	return content.Load(src, s.Config.Defaults.Layout)
}

// Fragment renders the markdown body of doc.
func (s *Site) Fragment(doc *content.Document) ([]byte, error) {
	return s.renderer.Render(doc.Body)
}

// PageVars are the {{ page.<key> }} values of doc.
func (s *Site) PageVars(doc *content.Document, fragment []byte) map[string]string {
	vars := doc.Vars(fragment)
	if t, ok := s.git.LastModified(doc.ID); ok {
		vars["last_modified"] = t.Format(time.DateOnly)
	}
	return vars
}

// Render produces the complete page for doc: the markdown fragment wrapped
// in the document's layout chain.
func (s *Site) Render(doc *content.Document) ([]byte, error) {
	fragment, err := s.Fragment(doc)
	if err != nil {
		return nil, err
	}
	vars := layout.Vars{Page: s.PageVars(doc, fragment), Site: s.Vars}
	return s.Layouts.Resolve(doc.Layout, fragment, vars)
}

// CacheKey identifies everything a rendered page depends on: the document
// fingerprint, its layout chain, the site configuration and, with git info
// enabled, the last commit time. It fails like Render when the layout
// cannot be resolved.
func (s *Site) CacheKey(doc *content.Document) (string, error) {
	layoutDigest, err := s.Layouts.Digest(doc.Layout)
	if err != nil {
		return "", err
	}
	fp, err := content.Fingerprint(doc)
	if err != nil {
		return "", err
	}
	lastMod := ""
	if t, ok := s.git.LastModified(doc.ID); ok {
		lastMod = t.Format(time.RFC3339)
	}

	sum := sha256.Sum256([]byte(fp + "|" + layoutDigest + "|" + s.digest + "|" + lastMod))
	return hex.EncodeToString(sum[:]), nil
}
