package content

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title returns the front matter title, else the text of the first heading
// in the rendered fragment, else a title derived from the file name.
func (d *Document) Title(fragment []byte) string {
	if t, ok := d.FrontMatter["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if h := FirstHeading(fragment); h != "" {
		return h
	}
	return TitleFromName(d.ID)
}

// Vars returns the page variables of the document: every scalar front
// matter key plus title, excerpt, url and path.
func (d *Document) Vars(fragment []byte) map[string]string {
	vars := make(map[string]string, len(d.FrontMatter)+4)
	for k, v := range d.FrontMatter {
		if s, ok := ScalarString(v); ok {
			vars[k] = s
		}
	}
	vars["title"] = d.Title(fragment)
	vars["excerpt"] = Excerpt(fragment)
	vars["url"] = d.URL()
	vars["path"] = d.ID
	vars["layout"] = d.Layout
	return vars
}

// TitleFromName turns "python-generators.md" into "Python Generators".
func TitleFromName(id string) string {
	base := path.Base(id)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(strings.Fields(base), " "))
}

// FirstHeading returns the text of the first h1-h6 element of an HTML fragment.
func FirstHeading(fragment []byte) string {
	n := findFirst(fragment, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return true
		}
		return false
	})
	return nodeText(n)
}

// Excerpt returns the plain text of the first paragraph of an HTML fragment.
func Excerpt(fragment []byte) string {
	return nodeText(findFirst(fragment, func(n *html.Node) bool { return n.DataAtom == atom.P }))
}

func findFirst(fragment []byte, match func(*html.Node) bool) *html.Node {
	if len(bytes.TrimSpace(fragment)) == 0 {
		return nil
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), ctx)
	if err != nil {
		return nil
	}

	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && match(n) {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	for _, n := range nodes {
		if found := walk(n); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// ScalarString renders a scalar front matter value as a string. Maps,
// slices and nil are not scalars.
func ScalarString(v any) (string, bool) {
	switch vv := v.(type) {
	case string:
		return vv, true
	case bool:
		return strconv.FormatBool(vv), true
	case int:
		return strconv.Itoa(vv), true
	case int64:
		return strconv.FormatInt(vv, 10), true
	case uint64:
		return strconv.FormatUint(vv, 10), true
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64), true
	case time.Time:
		if vv.Equal(vv.Truncate(24*time.Hour)) && vv.Location() == time.UTC {
			return vv.Format(time.DateOnly), true
		}
		return vv.Format(time.RFC3339), true
	case fmt.Stringer:
		return vv.String(), true
	}
	return "", false
}
