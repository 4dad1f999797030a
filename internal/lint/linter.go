package lint

import (
	"errors"
	"sort"

	"github.com/rajesh1993/sitegen/internal/build"
	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
)

// Linter checks every document of a site.
type Linter struct {
	cfg   Config
	rules []Rule
}

// NewLinter creates a linter with the standard rules.
func NewLinter(cfg Config) *Linter {
	return &Linter{
		cfg: cfg,
		rules: []Rule{
			LayoutRule{},
			OutputRule{},
			RenderRule{},
			BrokenLinkRule{},
		},
	}
}

// Lint loads and checks every document. Issues are sorted by path and rule.
func (l *Linter) Lint(site *build.Site) *Result {
	result := &Result{Issues: []Issue{}}
	for _, src := range site.Inventory.Documents {
		result.FilesTotal++

		doc, err := site.LoadDocument(src)
		if err != nil {
			l.add(result, Issue{
				FilePath: src.ID,
				Severity: SeverityError,
				Rule:     loadRuleName(err),
				Message:  err.Error(),
			})
			continue
		}
		if doc.Draft() && !site.Config.Build.Drafts {
			l.add(result, Issue{FilePath: src.ID, Severity: SeverityInfo, Rule: "draft", Message: "draft is not built"})
		}
		for _, rule := range l.rules {
			for _, issue := range rule.Check(site, doc) {
				l.add(result, issue)
			}
		}
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		a, b := result.Issues[i], result.Issues[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.Rule < b.Rule
	})
	return result
}

func (l *Linter) add(result *Result, issue Issue) {
	if l.cfg.Strict && issue.Severity == SeverityWarning {
		issue.Severity = SeverityError
	}
	if l.cfg.Quiet && issue.Severity != SeverityError {
		return
	}
	result.Issues = append(result.Issues, issue)
}

func loadRuleName(err error) string {
	if errors.Is(err, berrors.ErrIOFailure) {
		return "read"
	}
	return "front-matter"
}
