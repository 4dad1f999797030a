package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nlayout: page\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: page\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nlayout: page\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nlayout: page\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: page\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nlayout: page\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: page\n"), fm)
	require.Empty(t, body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nHello\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("Hello\n"), body)
}

func TestSplit_IgnoresByteOrderMark(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("---\nlayout: page\n---\nHi\n")...)

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("layout: page\n"), fm)
	require.Equal(t, []byte("Hi\n"), body)
}

func TestSplit_DelimiterMustOpenDocument(t *testing.T) {
	input := []byte("Intro\n---\nlayout: page\n---\n")

	_, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Equal(t, input, body)
}

func TestParse(t *testing.T) {
	fm, body, err := Parse([]byte("---\nlayout: page\ntitle: Generators\ndraft: true\n---\n## Generators\n\nHello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("## Generators\n\nHello"), body)

	layout, present, err := fm.Layout()
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "page", layout)

	title, ok := fm.String("title")
	assert.True(t, ok)
	assert.Equal(t, "Generators", title)
	assert.True(t, fm.Bool("draft"))
	assert.False(t, fm.Bool("missing"))
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cause error
	}{
		{name: "no front matter", input: "Hello world\n", cause: ErrNoFrontMatter},
		{name: "unterminated", input: "---\nlayout: page\nHello\n", cause: ErrMissingClosingDelimiter},
		{name: "not a mapping", input: "---\n- a\n- b\n---\nHello\n"},
		{name: "invalid yaml", input: "---\nlayout: [page\n---\nHello\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := Parse([]byte(tt.input))
			require.Error(t, err)
			require.ErrorIs(t, err, berrors.ErrMalformedFrontMatter)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
			assert.Nil(t, fm)
			assert.Nil(t, body)
		})
	}
}

func TestLayout(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		fm := &FrontMatter{Fields: map[string]any{"title": "x"}}
		name, present, err := fm.Layout()
		require.NoError(t, err)
		assert.False(t, present)
		assert.Empty(t, name)
	})

	t.Run("null counts as absent", func(t *testing.T) {
		fm := &FrontMatter{Fields: map[string]any{"layout": nil}}
		_, present, err := fm.Layout()
		require.NoError(t, err)
		assert.False(t, present)
	})

	t.Run("non-string", func(t *testing.T) {
		fm := &FrontMatter{Fields: map[string]any{"layout": 3}}
		_, present, err := fm.Layout()
		require.ErrorIs(t, err, berrors.ErrMalformedFrontMatter)
		assert.True(t, present)
	})

	t.Run("nil receiver", func(t *testing.T) {
		var fm *FrontMatter
		_, present, err := fm.Layout()
		require.NoError(t, err)
		assert.False(t, present)
	})
}

func TestParseYAML_Blank(t *testing.T) {
	fields, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.NotNil(t, fields)
}
