package exporter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/pcraw4d/loadgen/internal/metrics"
	"github.com/pcraw4d/loadgen/internal/observability"
)

func sampleSnapshot() metrics.Snapshot {
	return metrics.Snapshot{
		TotalCount:          100,
		SuccessCount:        90,
		FailureCount:        10,
		ElapsedMs:           1000,
		SuccessPercentileNs: map[float64]int64{50: 1000, 99: 5000},
	}
}

func TestConsoleExporter_ExportDoesNotError(t *testing.T) {
	e := NewConsoleExporter(observability.NewNop())
	err := e.Export(context.Background(), "final", sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestPrometheusExporter_ExportUpdatesGauges(t *testing.T) {
	e := NewPrometheusExporter()
	err := e.Export(context.Background(), "tick", sampleSnapshot())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loadgen_executions_total 100")
}

func TestOTelExporter_RegistersAndExports(t *testing.T) {
	meter := otel.Meter("test")
	e, err := NewOTelExporter(meter)
	require.NoError(t, err)

	err = e.Export(context.Background(), "tick", sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestWebhookExporter_PostsCompressedJSON(t *testing.T) {
	received := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewWebhookExporter(srv.URL, srv.Client())
	err := e.Export(context.Background(), "final", sampleSnapshot())
	require.NoError(t, err)

	req := <-received
	assert.Equal(t, "br", req.Header.Get("Content-Encoding"))
}

func TestWebhookExporter_NonSuccessStatusBecomesExporterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewWebhookExporter(srv.URL, srv.Client())
	err := e.Export(context.Background(), "final", sampleSnapshot())
	require.Error(t, err)
}
