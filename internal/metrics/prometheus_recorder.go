package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitegen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration  prom.Histogram
	documentResults *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcomes   *prom.CounterVec
	assetsCopied    prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_seconds",
			Help:      "Duration of rendering a single document into its layout",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		documentResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_results_total",
			Help:      "Documents processed by outcome",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		assetsCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "assets_copied_total",
			Help:      "Static assets copied into the output tree",
		}),
	}
	reg.MustRegister(pr.renderDuration, pr.documentResults, pr.buildDuration, pr.buildOutcomes, pr.assetsCopied)
	return pr
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentResult(result DocumentResult) {
	if p == nil {
		return
	}
	p.documentResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncAssetsCopied(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.assetsCopied.Add(float64(n))
}
