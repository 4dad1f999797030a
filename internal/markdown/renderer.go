package markdown

import (
	"bytes"
	"fmt"

	bm "github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls the markdown feature set used when rendering.
type Options struct {
	// UnsafeHTML passes raw HTML blocks and inline tags through to the output.
	UnsafeHTML bool
	// HeadingIDs generates id attributes for headings.
	HeadingIDs bool
	// Footnotes enables the footnote extension.
	Footnotes bool
	// Sanitize filters the rendered fragment through a UGC policy that also allows iframes.
	Sanitize bool
}

// DefaultOptions matches the defaults of the markdown config section.
func DefaultOptions() Options {
	return Options{UnsafeHTML: true, Footnotes: true}
}

// Renderer converts markdown bodies to HTML fragments. It is safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bm.Policy
}

// NewRenderer builds a renderer for the given options.
func NewRenderer(opts Options) *Renderer {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Footnotes {
		exts = append(exts, extension.Footnote)
	}

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var rendererOpts []goldmark.Option
	rendererOpts = append(rendererOpts,
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
	)
	if opts.UnsafeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	r := &Renderer{md: goldmark.New(rendererOpts...)}
	if opts.Sanitize {
		r.policy = sanitizePolicy()
	}
	return r
}

// Render converts body to an HTML fragment. An empty body renders to an empty fragment.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	if r.policy != nil {
		return r.policy.SanitizeBytes(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func sanitizePolicy() *bm.Policy {
	p := bm.UGCPolicy()
	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "title", "frameborder", "allow", "allowfullscreen").OnElements("iframe")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}
