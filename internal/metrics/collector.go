// Package metrics implements spec §4.4: streaming aggregation of execution
// records into percentile-bearing snapshots without retaining individual
// records, grounded on github.com/codahale/hdrhistogram the way
// other_examples' neobench worker uses it for query-latency percentiles.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pcraw4d/loadgen/internal/record"
)

// DefaultPercentiles matches the teacher's load-testing middleware
// (P50/P95/P99) plus P90 and the P99.9 tail.
var DefaultPercentiles = []float64{50, 90, 95, 99, 99.9}

// Config controls a Collector's percentile set and capacity-hint
// thresholds. Zero value is usable: DefaultPercentiles with a 5%
// error-rate threshold and a 1s p99 latency threshold.
type Config struct {
	Percentiles          []float64
	CapacityErrorRate    float64
	CapacityLatencyNsP99 int64
}

func (c Config) withDefaults() Config {
	if len(c.Percentiles) == 0 {
		c.Percentiles = DefaultPercentiles
	}
	if c.CapacityErrorRate <= 0 {
		c.CapacityErrorRate = 0.05
	}
	if c.CapacityLatencyNsP99 <= 0 {
		c.CapacityLatencyNsP99 = int64(time.Second)
	}
	return c
}

// Collector aggregates ExecutionRecords into a running Snapshot. All
// methods are safe for concurrent use: Record is called from every
// executor goroutine, Snapshot from the metrics pipeline's own ticker
// goroutine.
type Collector struct {
	cfg Config

	startedAt time.Time

	total   int64
	success int64
	failure int64

	successHist *latencyHistogram
	failureHist *latencyHistogram

	clientMu      sync.Mutex
	clientMetrics map[string]float64

	closed int32
}

// NewCollector starts a Collector with startedAt fixing elapsed-time-zero.
// Tests inject a fixed startedAt to make ElapsedMs deterministic.
func NewCollector(cfg Config, startedAt time.Time) *Collector {
	cfg = cfg.withDefaults()
	return &Collector{
		cfg:           cfg,
		startedAt:     startedAt,
		successHist:   newLatencyHistogram(),
		failureHist:   newLatencyHistogram(),
		clientMetrics: make(map[string]float64),
	}
}

// Record folds one ExecutionRecord into the running aggregates. A no-op
// after Close.
func (c *Collector) Record(rec record.ExecutionRecord) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return
	}
	atomic.AddInt64(&c.total, 1)
	latencyNs := rec.DurationNs()
	if rec.Outcome.IsSuccess() {
		atomic.AddInt64(&c.success, 1)
		c.successHist.record(rec.IterationIdx, latencyNs)
		return
	}
	atomic.AddInt64(&c.failure, 1)
	c.failureHist.record(rec.IterationIdx, latencyNs)
}

// RecordClientMetric stores a last-writer-wins auxiliary metric reported
// by a task (e.g. connection-pool depth). Advisory only; never consulted
// by engine control flow (SPEC_FULL.md supplement #2).
func (c *Collector) RecordClientMetric(key string, value float64) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return
	}
	c.clientMu.Lock()
	c.clientMetrics[key] = value
	c.clientMu.Unlock()
}

// ExecutionCount, FailureCount, and FailureRatePercent give a cheap
// MetricsProvider view (internal/adaptive) without the cost of building a
// full Snapshot — the adaptive controller's control tick calls these far
// more often than anything reads percentiles.
func (c *Collector) ExecutionCount() int64 {
	return atomic.LoadInt64(&c.total)
}

func (c *Collector) FailureCount() int64 {
	return atomic.LoadInt64(&c.failure)
}

func (c *Collector) FailureRatePercent() float64 {
	total := atomic.LoadInt64(&c.total)
	if total == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&c.failure)) * 100 / float64(total)
}

// Snapshot returns a consistent point-in-time view of the aggregates.
// Calling Snapshot repeatedly with no intervening Record calls returns
// identical TotalCount/SuccessCount/FailureCount/percentile values
// (ElapsedMs still advances with wall-clock time).
func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadInt64(&c.total)
	success := atomic.LoadInt64(&c.success)
	failure := atomic.LoadInt64(&c.failure)

	successPct := percentilesOf(c.successHist.merged(), c.cfg.Percentiles)
	failurePct := percentilesOf(c.failureHist.merged(), c.cfg.Percentiles)

	c.clientMu.Lock()
	clientCopy := make(map[string]float64, len(c.clientMetrics))
	for k, v := range c.clientMetrics {
		clientCopy[k] = v
	}
	c.clientMu.Unlock()

	configured := make([]float64, len(c.cfg.Percentiles))
	copy(configured, c.cfg.Percentiles)

	snap := Snapshot{
		TotalCount:            total,
		SuccessCount:          success,
		FailureCount:          failure,
		SuccessPercentileNs:   successPct,
		FailurePercentileNs:   failurePct,
		ElapsedMs:             time.Since(c.startedAt).Milliseconds(),
		ConfiguredPercentiles: configured,
		ClientMetrics:         clientCopy,
	}
	snap.Capacity = classifyCapacity(snap, c.cfg.CapacityErrorRate, c.cfg.CapacityLatencyNsP99)
	return snap
}

// Close marks the collector quiesced. Idempotent: a second Close is a
// no-op. After Close, Record and RecordClientMetric are no-ops but
// Snapshot keeps returning the final aggregates.
func (c *Collector) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	return nil
}
