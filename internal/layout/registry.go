package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
)

// ErrEmptyLayoutName is returned when a document names no layout. It is a
// front matter error, not a lookup failure.
var ErrEmptyLayoutName = fmt.Errorf("%w: empty layout name", berrors.ErrMalformedFrontMatter)

const layoutExt = ".html"

// Registry is the set of loaded layouts. It is read-only after loading and
// safe for concurrent use.
type Registry struct {
	layouts map[string]*Layout
}

// NewRegistry builds a registry from compiled layouts. Later layouts with
// a duplicate name replace earlier ones.
func NewRegistry(layouts ...*Layout) *Registry {
	r := &Registry{layouts: make(map[string]*Layout, len(layouts))}
	for _, l := range layouts {
		r.layouts[l.Name] = l
	}
	return r
}

// LoadRegistry compiles every *.html file directly inside dir. A missing
// directory yields an empty registry.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read layouts dir %s: %w", berrors.ErrIOFailure, dir, err)
	}

	var layouts []*Layout
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != layoutExt {
			continue
		}
		path := filepath.Join(dir, e.Name())
		// #nosec G304 -- path comes from listing the configured layouts directory.
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read layout %s: %w", berrors.ErrIOFailure, path, err)
		}
		l, err := Compile(strings.TrimSuffix(e.Name(), layoutExt), src)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return NewRegistry(layouts...), nil
}

// Names returns the layout names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for n := range r.layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the named layout.
func (r *Registry) Get(name string) (*Layout, bool) {
	l, ok := r.layouts[name]
	return l, ok
}

// Chain returns the layout and its ancestors, innermost first.
func (r *Registry) Chain(name string) ([]*Layout, error) {
	if name == "" {
		return nil, ErrEmptyLayoutName
	}

	var chain []*Layout
	seen := make(map[string]bool)
	for current := name; current != ""; {
		if seen[current] {
			names := make([]string, 0, len(chain)+1)
			for _, l := range chain {
				names = append(names, l.Name)
			}
			names = append(names, current)
			return nil, fmt.Errorf("%w: %s", berrors.ErrLayoutCycle, strings.Join(names, " -> "))
		}
		seen[current] = true

		l, ok := r.layouts[current]
		if !ok {
			if current == name {
				return nil, fmt.Errorf("%w: %q", berrors.ErrLayoutNotFound, name)
			}
			return nil, fmt.Errorf("%w: %q (parent of %q)", berrors.ErrLayoutNotFound, current, chain[len(chain)-1].Name)
		}
		chain = append(chain, l)
		current = l.Parent
	}
	return chain, nil
}

// Resolve wraps fragment in the named layout and its parents.
func (r *Registry) Resolve(name string, fragment []byte, vars Vars) ([]byte, error) {
	chain, err := r.Chain(name)
	if err != nil {
		return nil, err
	}
	out := fragment
	for _, l := range chain {
		out = l.Apply(out, vars)
	}
	return out, nil
}

// Digest identifies the content of the named layout chain, so that a
// change to any layout in the chain changes the digest.
func (r *Registry) Digest(name string) (string, error) {
	chain, err := r.Chain(name)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, l := range chain {
		_, _ = h.Write([]byte(l.Name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(l.digest))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
