package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/pcraw4d/loadgen/internal/enginerr"
	"github.com/pcraw4d/loadgen/internal/metrics"
)

// webhookPayload is the JSON body POSTed to the configured endpoint.
type webhookPayload struct {
	Title               string            `json:"title"`
	TotalCount          int64             `json:"total_count"`
	SuccessCount        int64             `json:"success_count"`
	FailureCount        int64             `json:"failure_count"`
	SuccessRate         float64           `json:"success_rate"`
	ResponseTPS         float64           `json:"response_tps"`
	ElapsedMs           int64             `json:"elapsed_ms"`
	SuccessPercentileNs map[float64]int64 `json:"success_percentile_ns"`
	FailurePercentileNs map[float64]int64 `json:"failure_percentile_ns"`
	Bottleneck          string            `json:"bottleneck"`
}

// WebhookExporter POSTs each snapshot as brotli-compressed JSON. Grounded
// on the teacher's compression-aware cache entries
// (internal/classification/redis_cache.go's CompressionEnabled/
// CompressionRatio fields), repurposed here for an outbound HTTP payload
// instead of a cache value.
type WebhookExporter struct {
	url    string
	client *http.Client
}

// NewWebhookExporter posts to url using client, or a new http.Client with
// a 5s timeout if client is nil.
func NewWebhookExporter(url string, client *http.Client) *WebhookExporter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookExporter{url: url, client: client}
}

func (e *WebhookExporter) Export(ctx context.Context, title string, snap metrics.Snapshot) error {
	payload := webhookPayload{
		Title:               title,
		TotalCount:          snap.TotalCount,
		SuccessCount:        snap.SuccessCount,
		FailureCount:        snap.FailureCount,
		SuccessRate:         snap.SuccessRate(),
		ResponseTPS:         snap.ResponseTPS(),
		ElapsedMs:           snap.ElapsedMs,
		SuccessPercentileNs: snap.SuccessPercentileNs,
		FailurePercentileNs: snap.FailurePercentileNs,
		Bottleneck:          string(snap.Capacity.Bottleneck),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: err}
	}

	var compressed bytes.Buffer
	bw := brotli.NewWriter(&compressed)
	if _, err := bw.Write(body); err != nil {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: err}
	}
	if err := bw.Close(); err != nil {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &compressed)
	if err != nil {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "br")

	resp, err := e.client.Do(req)
	if err != nil {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &enginerr.ExporterError{Exporter: "webhook", Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

func (e *WebhookExporter) Close() error { return nil }
