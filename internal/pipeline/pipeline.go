// Package pipeline implements spec §6's MetricsPipeline: a periodic
// snapshot-and-fan-out over zero or more exporters, publishing one
// distinguished final snapshot after the engine run completes.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pcraw4d/loadgen/internal/exporter"
	"github.com/pcraw4d/loadgen/internal/metrics"
	"github.com/pcraw4d/loadgen/internal/observability"
)

// FinalSnapshotTitle is the distinguishing title exporters receive for the
// one snapshot published after the run completes.
const FinalSnapshotTitle = "final"

// PeriodicSnapshotTitle is the title used for every tick published while
// the run is still in progress.
const PeriodicSnapshotTitle = "periodic"

// Pipeline owns a collector and a set of exporters, publishing periodic
// snapshots on Interval and one final snapshot on PublishFinal.
type Pipeline struct {
	collector *metrics.Collector
	exporters []exporter.Exporter
	interval  time.Duration
	logger    *observability.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New builds a Pipeline. interval <= 0 disables periodic snapshots —
// only the final snapshot is ever published.
func New(collector *metrics.Collector, exporters []exporter.Exporter, interval time.Duration, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Pipeline{
		collector: collector,
		exporters: exporters,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Run blocks, publishing periodic snapshots until ctx is cancelled or
// Close is called. It does not itself decide when the engine run is over
// — the caller is expected to cancel ctx or call Close once the engine
// returns, then call PublishFinal.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.doneCh)

	if p.interval <= 0 {
		select {
		case <-ctx.Done():
		case <-p.stopCh:
		}
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.publish(ctx, PeriodicSnapshotTitle)
		}
	}
}

// Close stops Run's loop and waits for it to exit.
func (p *Pipeline) Close() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

// PublishFinal takes one last snapshot and fans it out under
// FinalSnapshotTitle. Called by the caller after the engine run completes.
func (p *Pipeline) PublishFinal(ctx context.Context) metrics.Snapshot {
	return p.publish(ctx, FinalSnapshotTitle)
}

func (p *Pipeline) publish(ctx context.Context, title string) metrics.Snapshot {
	snap := p.collector.Snapshot()
	for _, ex := range p.exporters {
		if err := ex.Export(ctx, title, snap); err != nil {
			p.logger.Warn("exporter failed", zap.Error(err))
		}
	}
	return snap
}

// CloseExporters closes every owned exporter, logging (not propagating)
// failures — per spec, exporter lifecycle errors are swallowed.
func (p *Pipeline) CloseExporters() {
	for _, ex := range p.exporters {
		if err := ex.Close(); err != nil {
			p.logger.Warn("exporter close failed", zap.Error(err))
		}
	}
}
