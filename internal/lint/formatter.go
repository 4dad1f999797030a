package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, source string) error
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results in human-readable text format.
func (f TextFormatter) Format(w io.Writer, result *Result, source string) error {
	rule := strings.Repeat("━", 60)
	var b strings.Builder

	fmt.Fprintf(&b, "Checking site in: %s\n%s\n\n", source, rule)
	for _, issue := range result.Issues {
		f.formatIssue(&b, issue)
	}

	fmt.Fprintf(&b, "%s\nResults:\n", rule)
	fmt.Fprintf(&b, "  %d document%s checked\n", result.FilesTotal, pluralize(result.FilesTotal))
	if n := result.ErrorCount(); n > 0 {
		fmt.Fprintf(&b, "  %d error%s (fails the build)\n", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		fmt.Fprintf(&b, "  %d warning%s (should fix)\n", n, pluralize(n))
	}
	b.WriteString("\n")

	switch {
	case result.HasErrors():
		b.WriteString("✗ Site has errors that will fail the build.\n")
	case result.HasWarnings():
		b.WriteString("⚠ Site has warnings. Run with --strict to treat them as errors.\n")
	default:
		b.WriteString("✓ All documents pass.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (f TextFormatter) formatIssue(b *strings.Builder, issue Issue) {
	var icon string
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	default:
		icon = "ℹ"
	}
	fmt.Fprintf(b, "%s %s\n", icon, issue.FilePath)
	fmt.Fprintf(b, "  %s [%s]: %s\n", issue.Severity, issue.Rule, issue.Message)
	if issue.Fix != "" {
		fmt.Fprintf(b, "  Fix: %s\n", issue.Fix)
	}
	b.WriteString("\n")
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Path         string      `json:"path"`
	FilesTotal   int         `json:"files_total"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue represents a single issue in JSON format.
type JSONIssue struct {
	FilePath string `json:"file_path"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Format outputs results in JSON format.
func (f JSONFormatter) Format(w io.Writer, result *Result, source string) error {
	output := JSONOutput{
		Path:         source,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Issues:       make([]JSONIssue, 0, len(result.Issues)),
	}
	for _, issue := range result.Issues {
		output.Issues = append(output.Issues, JSONIssue{
			FilePath: issue.FilePath,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// NewFormatter creates the appropriate formatter based on format string.
func NewFormatter(format string) Formatter {
	if format == "json" {
		return JSONFormatter{}
	}
	return TextFormatter{}
}

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
