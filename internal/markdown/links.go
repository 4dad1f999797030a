package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// LinkKind identifies the markdown construct a link came from.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link destination found in a document body.
type Link struct {
	Kind        LinkKind
	Destination string
}

// IsRelative reports whether the destination points inside the site: no
// scheme, not protocol-relative, not site-absolute and not a bare fragment.
func (l Link) IsRelative() bool {
	d := l.Destination
	switch {
	case d == "", strings.HasPrefix(d, "#"), strings.HasPrefix(d, "/"):
		return false
	case strings.Contains(d, "://"), strings.HasPrefix(d, "mailto:"), strings.HasPrefix(d, "tel:"), strings.HasPrefix(d, "data:"):
		return false
	}
	return true
}

// Target strips any query string and fragment from the destination.
func (l Link) Target() string {
	d := l.Destination
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// ExtractLinks parses a markdown body (front matter already removed) and
// returns the links it contains in document order, followed by reference
// definitions sorted by label.
//
// Destinations containing whitespace are not links under CommonMark, but
// authors write them anyway; a line-based pass reports those as well so
// the link checker can flag them.
func ExtractLinks(body []byte) ([]Link, error) {
	ctx := parser.NewContext()
	root := goldmark.New().Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return append(links, lenientLinks(body)...), nil
}
