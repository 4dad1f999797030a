package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/frontmatter"
)

// markerPattern matches {{ content }}, {{ page.key }} and {{ site.key }}
// with free whitespace inside the braces. Any other {{ ... }} text is left alone.
var markerPattern = regexp.MustCompile(`\{\{\s*(content|page\.[A-Za-z0-9_-]+|site\.[A-Za-z0-9_-]+)\s*\}\}`)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segContent
	segPage
	segSite
)

type segment struct {
	kind segmentKind
	text string // literal text, or the variable key
}

// Vars holds the string values available to {{ page.* }} and {{ site.* }}.
type Vars struct {
	Page map[string]string
	Site map[string]string
}

// Layout is a compiled layout template.
type Layout struct {
	Name   string
	Parent string

	segments []segment
	digest   string
}

// Compile parses layout source. The layout key of an optional front matter
// block names the parent layout.
func Compile(name string, src []byte) (*Layout, error) {
	raw, body, had, err := frontmatter.Split(src)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w: %w", name, berrors.ErrMalformedLayout, err)
	}

	l := &Layout{Name: name}
	if had {
		fields, err := frontmatter.ParseYAML(raw)
		if err != nil {
			return nil, fmt.Errorf("layout %q: %w: %w", name, berrors.ErrMalformedLayout, err)
		}
		fm := &frontmatter.FrontMatter{Fields: fields, Raw: raw}
		parent, _, err := fm.Layout()
		if err != nil {
			return nil, fmt.Errorf("layout %q: %w: %w", name, berrors.ErrMalformedLayout, err)
		}
		l.Parent = parent
	}

	contentMarkers := 0
	last := 0
	for _, m := range markerPattern.FindAllSubmatchIndex(body, -1) {
		if m[0] > last {
			l.segments = append(l.segments, segment{kind: segLiteral, text: string(body[last:m[0]])})
		}
		ref := string(body[m[2]:m[3]])
		switch {
		case ref == "content":
			contentMarkers++
			l.segments = append(l.segments, segment{kind: segContent})
		case ref[:5] == "page.":
			l.segments = append(l.segments, segment{kind: segPage, text: ref[5:]})
		default:
			l.segments = append(l.segments, segment{kind: segSite, text: ref[5:]})
		}
		last = m[1]
	}
	if last < len(body) {
		l.segments = append(l.segments, segment{kind: segLiteral, text: string(body[last:])})
	}

	if contentMarkers != 1 {
		return nil, fmt.Errorf("layout %q: %w: expected exactly one {{ content }} marker, found %d",
			name, berrors.ErrMalformedLayout, contentMarkers)
	}

	sum := sha256.Sum256(src)
	l.digest = hex.EncodeToString(sum[:])
	return l, nil
}

// Digest is the SHA-256 of the layout source.
func (l *Layout) Digest() string { return l.digest }

// Apply substitutes fragment into the content marker and fills variables.
func (l *Layout) Apply(fragment []byte, vars Vars) []byte {
	size := len(fragment)
	for _, s := range l.segments {
		size += len(s.text)
	}
	out := make([]byte, 0, size)
	for _, s := range l.segments {
		switch s.kind {
		case segLiteral:
			out = append(out, s.text...)
		case segContent:
			out = append(out, fragment...)
		case segPage:
			out = append(out, html.EscapeString(vars.Page[s.text])...)
		case segSite:
			out = append(out, html.EscapeString(vars.Site[s.text])...)
		}
	}
	return out
}
