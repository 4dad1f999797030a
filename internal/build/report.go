package build

import (
	"time"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/metrics"
	"github.com/rajesh1993/sitegen/internal/notify"
)

// Status indicates the overall outcome of a build.
type Status string

const (
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsTerminal returns true if the status represents a completed build.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCanceled
}

// IsSuccess returns true if every document was built.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

func (s Status) outcome() metrics.BuildOutcome {
	switch s {
	case StatusSuccess:
		return metrics.BuildSuccess
	case StatusCanceled:
		return metrics.BuildCanceled
	default:
		return metrics.BuildFailed
	}
}

// PageStatus is the outcome of one document.
type PageStatus string

const (
	PageRendered PageStatus = "rendered"
	// PageUnchanged pages were skipped by an incremental build.
	PageUnchanged PageStatus = "unchanged"
	PageDraft     PageStatus = "draft"
	PageFailed    PageStatus = "failed"
)

// PageResult records what happened to one document.
type PageResult struct {
	ID     string
	Output string
	Layout string
	Status PageStatus
	Err    *berrors.DocumentError
}

// Report summarizes a build.
type Report struct {
	BuildID  string
	Status   Status
	Source   string
	Output   string
	Started  time.Time
	Duration time.Duration

	// Pages holds one entry per dispatched document, sorted by ID.
	Pages []PageResult

	Rendered int
	Skipped  int
	Drafts   int
	Assets   int

	// Failures is sorted by path.
	Failures []*berrors.DocumentError
}

// Event converts the report into the payload published to notifiers.
func (r *Report) Event() notify.BuildEvent {
	ev := notify.BuildEvent{
		BuildID:    r.BuildID,
		Source:     r.Source,
		Output:     r.Output,
		StartedAt:  r.Started.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Rendered:   r.Rendered,
		Skipped:    r.Skipped + r.Drafts,
		Assets:     r.Assets,
		Outcome:    string(r.Status),
	}
	for _, f := range r.Failures {
		ev.Failures = append(ev.Failures, notify.Failure{Path: f.Path, Error: f.Err.Error()})
	}
	return ev
}
