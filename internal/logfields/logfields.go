package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyDocument   = "document"
	KeyLayout     = "layout"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeySource     = "source"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyWorker     = "worker"
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Document(id string) slog.Attr    { return slog.String(KeyDocument, id) }
func Layout(name string) slog.Attr    { return slog.String(KeyLayout, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Worker(id int) slog.Attr         { return slog.Int(KeyWorker, id) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
