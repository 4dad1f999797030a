package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveRenderDuration(3 * time.Millisecond)
	pr.IncDocumentResult(DocumentRendered)
	pr.IncDocumentResult(DocumentRendered)
	pr.IncDocumentResult(DocumentFailed)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildFailed)
	pr.IncAssetsCopied(4)
	pr.IncAssetsCopied(0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)

	assert.InDelta(t, 2, counterValue(t, reg, "sitegen_document_results_total", "rendered"), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "sitegen_document_results_total", "failed"), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "sitegen_build_outcomes_total", "failed"), 0)
	assert.InDelta(t, 4, counterValue(t, reg, "sitegen_assets_copied_total", ""), 0)
}

// counterValue finds a counter sample by family name and (single) label value.
func counterValue(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" || (len(m.GetLabel()) == 1 && m.GetLabel()[0].GetValue() == label) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRenderDuration(time.Second)
		pr.IncDocumentResult(DocumentSkipped)
		pr.ObserveBuildDuration(time.Second)
		pr.IncBuildOutcome(BuildSuccess)
		pr.IncAssetsCopied(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(BuildSuccess)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `sitegen_build_outcomes_total{outcome="success"} 1`)
}
