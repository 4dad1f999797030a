package metrics

import "time"

// DocumentResult enumerates per-document outcomes.
type DocumentResult string

const (
	DocumentRendered DocumentResult = "rendered"
	DocumentSkipped  DocumentResult = "skipped"
	DocumentFailed   DocumentResult = "failed"
)

// BuildOutcome enumerates the final status of a build.
type BuildOutcome string

const (
	BuildSuccess  BuildOutcome = "success"
	BuildFailed   BuildOutcome = "failed"
	BuildCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for site builds. Implementations
// must be safe for concurrent use; documents are rendered in parallel.
type Recorder interface {
	ObserveRenderDuration(d time.Duration)
	IncDocumentResult(result DocumentResult)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	IncAssetsCopied(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) IncDocumentResult(DocumentResult)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)  {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)        {}
func (NoopRecorder) IncAssetsCopied(int)                 {}
