// Package metrics provides build metrics for sitegen.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	b := build.New(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The preview server exposes the Prometheus registry on /metrics.
package metrics
