// Package exporter implements spec §6's Exporter contract and four
// concrete sinks: Console (structured logging), Prometheus, OpenTelemetry,
// and a brotli-compressed Webhook — grounded on the teacher's Prometheus
// usage (internal/classification/repository/classification_metrics.go)
// and otel usage across the pack, generalized away from promauto package
// globals per spec §9's explicit-constructor rule.
package exporter

import (
	"context"

	"github.com/pcraw4d/loadgen/internal/metrics"
)

// Exporter is a metrics sink. Export must never panic and should treat its
// own failures as logged-and-swallowed — per spec, exporter errors never
// propagate to the engine.
type Exporter interface {
	Export(ctx context.Context, title string, snap metrics.Snapshot) error
	Close() error
}
