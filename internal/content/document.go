package content

import (
	"fmt"
	"os"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/frontmatter"
)

// Document is a markdown source file split into front matter and body.
// It is immutable after Load.
type Document struct {
	ID         string
	SourcePath string
	OutputPath string
	Layout     string

	FrontMatter map[string]any
	Body        []byte
	Raw         []byte
}

// Load reads and parses a document. When the front matter carries no
// layout key, defaultLayout is used; with no default either, the front
// matter is malformed.
func Load(src Source, defaultLayout string) (*Document, error) {
	// #nosec G304 -- src.Path comes from walking the configured source root.
	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", berrors.ErrIOFailure, src.ID, err)
	}
	return Parse(src, raw, defaultLayout)
}

// Parse builds a document from raw file content.
func Parse(src Source, raw []byte, defaultLayout string) (*Document, error) {
	fm, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, err
	}

	name, present, err := fm.Layout()
	if err != nil {
		return nil, err
	}
	if !present {
		if defaultLayout == "" {
			return nil, fmt.Errorf("%w: no layout key and no default layout configured", berrors.ErrMalformedFrontMatter)
		}
		name = defaultLayout
	}

	return &Document{
		ID:          src.ID,
		SourcePath:  src.Path,
		OutputPath:  OutputPath(src.ID),
		Layout:      name,
		FrontMatter: fm.Fields,
		Body:        body,
		Raw:         raw,
	}, nil
}

// Draft reports whether the document is marked `draft: true`.
func (d *Document) Draft() bool {
	b, _ := d.FrontMatter["draft"].(bool)
	return b
}

// URL is the site-relative URL of the rendered page.
func (d *Document) URL() string {
	return URL(d.OutputPath)
}
