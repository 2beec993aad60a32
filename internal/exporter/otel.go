package exporter

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/pcraw4d/loadgen/internal/metrics"
)

// OTelExporter republishes each snapshot through OTel observable gauges.
// Export just updates the exporter's own cached snapshot; the registered
// callback (invoked by the meter provider's own collection cycle) reads
// that cache, matching the async-gauge idiom OTel's Go SDK expects for
// values that change out of band from collection.
type OTelExporter struct {
	mu   sync.Mutex
	snap metrics.Snapshot

	registration metric.Registration
}

// NewOTelExporter registers its instruments against meter.
func NewOTelExporter(meter metric.Meter) (*OTelExporter, error) {
	e := &OTelExporter{}

	total, err := meter.Int64ObservableGauge("loadgen.executions.total")
	if err != nil {
		return nil, err
	}
	success, err := meter.Int64ObservableGauge("loadgen.executions.success")
	if err != nil {
		return nil, err
	}
	failure, err := meter.Int64ObservableGauge("loadgen.executions.failure")
	if err != nil {
		return nil, err
	}
	tps, err := meter.Float64ObservableGauge("loadgen.response_tps")
	if err != nil {
		return nil, err
	}

	reg, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		e.mu.Lock()
		snap := e.snap
		e.mu.Unlock()

		o.ObserveInt64(total, snap.TotalCount)
		o.ObserveInt64(success, snap.SuccessCount)
		o.ObserveInt64(failure, snap.FailureCount)
		o.ObserveFloat64(tps, snap.ResponseTPS())
		return nil
	}, total, success, failure, tps)
	if err != nil {
		return nil, err
	}
	e.registration = reg

	return e, nil
}

func (e *OTelExporter) Export(ctx context.Context, title string, snap metrics.Snapshot) error {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	return nil
}

func (e *OTelExporter) Close() error {
	if e.registration != nil {
		return e.registration.Unregister()
	}
	return nil
}
