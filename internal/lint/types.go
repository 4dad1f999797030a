// Package lint validates a site without writing any output.
package lint

import (
	"fmt"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/content"
	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't fail a build.
	SeverityWarning
	// SeverityError indicates issues that make the document fail to build.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single problem found in a document.
type Issue struct {
	FilePath string   // Source ID of the document
	Severity Severity // Issue severity level
	Rule     string   // Rule identifier (e.g., "broken-link")
	Message  string   // Brief description of the issue
	Fix      string   // Suggested fix
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue
	FilesTotal int // Documents checked
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	return r.WarningCount() > 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Err returns a validation error when the result has errors.
func (r *Result) Err() error {
	n := r.ErrorCount()
	if n == 0 {
		return nil
	}
	return ferrors.ValidationError(fmt.Sprintf("check found %d error%s", n, pluralize(n))).
		WithContext("errors", n).
		WithContext("warnings", r.WarningCount()).
		Build()
}

// Rule checks one loaded document.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates a document and returns any issues found.
	Check(site *build.Site, doc *content.Document) []Issue
}

// Config contains configuration for the linter.
type Config struct {
	// Strict promotes warnings to errors.
	Strict bool

	// Quiet suppresses warnings, only showing errors.
	Quiet bool

	// Format specifies output format (text, json).
	Format string
}
