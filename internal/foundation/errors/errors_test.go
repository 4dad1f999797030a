package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissingLayout = errors.New("layout not found")

func TestClassifiedError_LayoutFailure(t *testing.T) {
	err := WrapError(errMissingLayout, CategoryLayout, "resolve layout").
		WithContext("layout", "post").
		WithContext("document", "posts/hello.md").
		Build()

	assert.Equal(t, CategoryLayout, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, "resolve layout", err.Message())
	assert.Equal(t, "[layout:error] resolve layout: layout not found", err.Error())
	assert.ErrorIs(t, err, errMissingLayout)
	assert.False(t, err.CanRetry())
	assert.False(t, err.IsFatal())

	name, ok := err.Context().GetString("layout")
	require.True(t, ok)
	assert.Equal(t, "post", name)
}

func TestClassifiedError_CategorySurvivesWrapping(t *testing.T) {
	inner := NewError(CategoryFrontMatter, "front matter is not a mapping").Build()
	wrapped := fmt.Errorf("notes/today.md: %w", inner)

	assert.True(t, IsClassified(wrapped))
	assert.True(t, HasCategory(wrapped, CategoryFrontMatter))
	assert.False(t, HasCategory(wrapped, CategoryLayout))
	assert.False(t, HasCategory(errors.New("plain"), CategoryFrontMatter))

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
}

func TestClassifiedError_WithContextCopies(t *testing.T) {
	base := NewError(CategoryFrontMatter, "missing front matter").Build()
	derived := base.WithContext("path", "a.md")

	_, ok := base.Context().Get("path")
	assert.False(t, ok)
	p, _ := derived.Context().GetString("path")
	assert.Equal(t, "a.md", p)
	assert.Equal(t, base.Category(), derived.Category())
}

func TestErrorBuilder(t *testing.T) {
	cause := errors.New("database is locked")

	cacheErr := WrapError(cause, CategoryCache, "record build").
		Retryable().
		WithContext("path", ".sitegen/cache.db").
		Build()
	assert.Equal(t, CategoryCache, cacheErr.Category())
	assert.Equal(t, RetryBackoff, cacheErr.RetryStrategy())
	assert.True(t, cacheErr.CanRetry())
	assert.Same(t, cause, cacheErr.Cause())

	tests := []struct {
		name     string
		err      *ClassifiedError
		category ErrorCategory
		fatal    bool
	}{
		{"config", ConfigError("source directory is required").Build(), CategoryConfig, true},
		{"validation", ValidationError("check found 1 error").Build(), CategoryValidation, true},
		{"fatal build", NewError(CategoryBuild, "2 documents failed").Fatal().Build(), CategoryBuild, true},
		{"render", NewError(CategoryRender, "render markdown").Build(), CategoryRender, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category())
			assert.Equal(t, tt.fatal, tt.err.IsFatal())
			assert.Equal(t, RetryNever, tt.err.RetryStrategy())
		})
	}
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{}.Set("document", "a.md").Set("layout", "page")
	b := ErrorContext{}.Set("layout", "post").Set("output", "a.html")

	merged := a.Merge(b)

	layout, _ := merged.GetString("layout")
	assert.Equal(t, "post", layout)
	doc, _ := merged.GetString("document")
	assert.Equal(t, "a.md", doc)
	_, ok := merged.Get("missing")
	assert.False(t, ok)

	original, _ := a.GetString("layout")
	assert.Equal(t, "page", original)
}
