// Package errors defines the site build error taxonomy.
//
// Every failure that stops a document from producing output is one of three
// sentinels, always wrapped with context at the call site and matched with
// errors.Is. Layout definition problems have their own sentinels in the
// layout category.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

var (
	// ErrLayoutNotFound indicates a document (or layout) names a layout that does not exist.
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrMalformedFrontMatter indicates the front matter block is missing, unterminated,
	// not a YAML mapping, or carries no layout.
	ErrMalformedFrontMatter = errors.New("malformed front matter")

	// ErrIOFailure indicates a source could not be read or an output could not be written.
	ErrIOFailure = errors.New("io failure")

	// ErrMalformedLayout indicates a layout without exactly one content marker.
	ErrMalformedLayout = errors.New("malformed layout")

	// ErrLayoutCycle indicates layouts that name each other as parents.
	ErrLayoutCycle = errors.New("layout cycle")

	// ErrOutputConflict indicates two sources that map to the same output
	// path. It is an ErrIOFailure: neither source can be written.
	ErrOutputConflict = fmt.Errorf("%w: output path conflict", ErrIOFailure)
)

// DocumentError ties a failure to the document that caused it.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Category maps the wrapped sentinel onto a foundation error category.
func (e *DocumentError) Category() ferrors.ErrorCategory {
	return CategoryOf(e.Err)
}

// BuildFailure aggregates every document that failed in one build.
type BuildFailure struct {
	Failures []*DocumentError
}

func (f *BuildFailure) Error() string {
	if len(f.Failures) == 1 {
		return "build failed: " + f.Failures[0].Error()
	}
	lines := make([]string, 0, len(f.Failures))
	for _, d := range f.Failures {
		lines = append(lines, "  "+d.Error())
	}
	return fmt.Sprintf("build failed: %d documents failed:\n%s", len(f.Failures), strings.Join(lines, "\n"))
}

// Unwrap exposes the individual document errors to errors.Is/As.
func (f *BuildFailure) Unwrap() []error {
	out := make([]error, len(f.Failures))
	for i, d := range f.Failures {
		out[i] = d
	}
	return out
}

// Category is the shared category of all failures, or CategoryBuild when they differ.
func (f *BuildFailure) Category() ferrors.ErrorCategory {
	if len(f.Failures) == 0 {
		return ferrors.CategoryBuild
	}
	first := f.Failures[0].Category()
	for _, d := range f.Failures[1:] {
		if d.Category() != first {
			return ferrors.CategoryBuild
		}
	}
	return first
}

// NewBuildFailure sorts failures by path so reports are stable across runs.
func NewBuildFailure(failures []*DocumentError) *BuildFailure {
	sorted := append([]*DocumentError(nil), failures...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return &BuildFailure{Failures: sorted}
}

// CategoryOf classifies an error from the build taxonomy.
func CategoryOf(err error) ferrors.ErrorCategory {
	switch {
	case errors.Is(err, ErrLayoutNotFound), errors.Is(err, ErrMalformedLayout), errors.Is(err, ErrLayoutCycle):
		return ferrors.CategoryLayout
	case errors.Is(err, ErrMalformedFrontMatter):
		return ferrors.CategoryFrontMatter
	case errors.Is(err, ErrIOFailure):
		return ferrors.CategoryFileSystem
	}
	if c, ok := ferrors.AsClassified(err); ok {
		return c.Category()
	}
	return ferrors.CategoryBuild
}

// Classify wraps err into a ClassifiedError suitable for the CLI adapter.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if ferrors.IsClassified(err) {
		return err
	}
	var failure *BuildFailure
	if errors.As(err, &failure) {
		return ferrors.NewError(failure.Category(), fmt.Sprintf("%d document(s) failed", len(failure.Failures))).
			WithCause(err).
			Fatal().
			Build()
	}
	return ferrors.NewError(CategoryOf(err), "build failed").WithCause(err).Fatal().Build()
}
