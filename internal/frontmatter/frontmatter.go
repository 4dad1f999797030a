package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// ErrNoFrontMatter indicates the document does not start with a front matter block.
var ErrNoFrontMatter = errors.New("document has no front matter block")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FrontMatter is the parsed key-value block at the head of a document.
type FrontMatter struct {
	Fields map[string]any
	Raw    []byte
}

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A leading UTF-8 byte order mark is ignored. Both LF and
// CRLF line endings are accepted; the closing delimiter may end the file.
func Split(content []byte) (raw []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	first, rest := cutLine(content)
	if !isDelimiter(first) {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	for pos := start; pos < len(content); {
		line, next := cutLine(content[pos:])
		if isDelimiter(line) {
			return content[start:pos], next, true, nil
		}
		pos += len(line)
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse splits content and decodes its front matter. Documents without a
// front matter block, or with a block that is unterminated or not a YAML
// mapping, fail with an error wrapping ErrMalformedFrontMatter.
func Parse(content []byte) (*FrontMatter, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", berrors.ErrMalformedFrontMatter, err)
	}
	if !had {
		return nil, nil, fmt.Errorf("%w: %w", berrors.ErrMalformedFrontMatter, ErrNoFrontMatter)
	}
	fields, err := ParseYAML(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", berrors.ErrMalformedFrontMatter, err)
	}
	return &FrontMatter{Fields: fields, Raw: raw}, body, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// String returns the value of key when it is a string.
func (fm *FrontMatter) String(key string) (string, bool) {
	if fm == nil {
		return "", false
	}
	s, ok := fm.Fields[key].(string)
	return s, ok
}

// Bool returns the value of key when it is a boolean, false otherwise.
func (fm *FrontMatter) Bool(key string) bool {
	if fm == nil {
		return false
	}
	b, _ := fm.Fields[key].(bool)
	return b
}

// Layout returns the layout name and whether the key was present. A present
// key with a non-string value is an error.
func (fm *FrontMatter) Layout() (string, bool, error) {
	if fm == nil {
		return "", false, nil
	}
	v, present := fm.Fields["layout"]
	if !present || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("%w: layout must be a string, got %T", berrors.ErrMalformedFrontMatter, v)
	}
	return s, true, nil
}

func cutLine(b []byte) (line, rest []byte) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil
	}
	return b[:i+1], b[i+1:]
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r\n")) == "---"
}
