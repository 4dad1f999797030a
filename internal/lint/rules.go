package lint

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/content"
	"github.com/rajesh1993/sitegen/internal/markdown"
)

// LayoutRule verifies that the document's layout chain resolves.
type LayoutRule struct{}

func (LayoutRule) Name() string { return "layout" }

func (r LayoutRule) Check(site *build.Site, doc *content.Document) []Issue {
	if _, err := site.Layouts.Chain(doc.Layout); err != nil {
		return []Issue{{
			FilePath: doc.ID,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  err.Error(),
			Fix:      fmt.Sprintf("add %s.html to the layouts directory or change the layout key", doc.Layout),
		}}
	}
	return nil
}

// OutputRule verifies that no other source is written to the document's
// output path.
type OutputRule struct{}

func (OutputRule) Name() string { return "output-conflict" }

func (r OutputRule) Check(site *build.Site, doc *content.Document) []Issue {
	if err := site.OutputConflict(doc.ID); err != nil {
		return []Issue{{
			FilePath: doc.ID,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  err.Error(),
			Fix:      "rename one of the sources",
		}}
	}
	return nil
}

// RenderRule verifies that the markdown body renders.
type RenderRule struct{}

func (RenderRule) Name() string { return "render" }

func (r RenderRule) Check(site *build.Site, doc *content.Document) []Issue {
	if _, err := site.Fragment(doc); err != nil {
		return []Issue{{FilePath: doc.ID, Severity: SeverityError, Rule: r.Name(), Message: err.Error()}}
	}
	return nil
}

// BrokenLinkRule reports relative links whose target does not exist.
// Links to markdown files must name a document of the site; other links
// must name a file or directory in the source tree, or the page rendered
// from a document.
type BrokenLinkRule struct{}

func (BrokenLinkRule) Name() string { return "broken-link" }

func (r BrokenLinkRule) Check(site *build.Site, doc *content.Document) []Issue {
	links, err := markdown.ExtractLinks(doc.Body)
	if err != nil {
		return []Issue{{FilePath: doc.ID, Severity: SeverityWarning, Rule: r.Name(), Message: fmt.Sprintf("could not scan links: %v", err)}}
	}

	docs, pages := documentSet(site), pageSet(site)
	var issues []Issue
	for _, link := range links {
		if !link.IsRelative() {
			continue
		}
		target := link.Target()
		if target == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}

		resolved := path.Join(path.Dir(doc.ID), target)
		if resolved == ".." || strings.HasPrefix(resolved, "../") {
			issues = append(issues, Issue{
				FilePath: doc.ID,
				Severity: SeverityWarning,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("link %q points outside the source directory", link.Destination),
			})
			continue
		}
		if linkExists(site, docs, pages, resolved) {
			continue
		}
		issues = append(issues, Issue{
			FilePath: doc.ID,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  fmt.Sprintf("broken %s link %q", link.Kind, link.Destination),
			Fix:      fmt.Sprintf("create %s or update the link", resolved),
		})
	}
	return issues
}

// pageSet holds the output path of every document.
func pageSet(site *build.Site) map[string]bool {
	set := make(map[string]bool, len(site.Inventory.Documents))
	for _, d := range site.Inventory.Documents {
		set[content.OutputPath(d.ID)] = true
	}
	return set
}

func documentSet(site *build.Site) map[string]bool {
	set := make(map[string]bool, len(site.Inventory.Documents))
	for _, d := range site.Inventory.Documents {
		set[d.ID] = true
	}
	return set
}

func linkExists(site *build.Site, docs, pages map[string]bool, id string) bool {
	if content.IsMarkdown(id) {
		return docs[id]
	}
	// A link to a rendered page is fine when a document produces it.
	if pages[id] {
		return true
	}
	_, err := os.Stat(filepath.Join(site.Config.Source, filepath.FromSlash(id)))
	return err == nil
}
