package metrics

import (
	"sync"

	"github.com/codahale/hdrhistogram"
)

// shardCount controls lock-striping for concurrent latency recording.
// Recording picks a shard by iteration index modulo shardCount, bounding
// contention to 1/shardCount of total writers.
const shardCount = 16

// minLatencyNs/maxLatencyNs bound the histogram's representable range: 1
// microsecond to 1 hour, matching the order of magnitude a load-generation
// engine's task latencies live in.
const (
	minLatencyNs = int64(1000)
	maxLatencyNs = int64(60 * 60 * 1e9)
	sigFigs      = 3
)

// latencyHistogram is a lock-striped wrapper over hdrhistogram.Histogram,
// giving bounded-relative-error percentile estimation with concurrent
// recording, per spec §4.4's explicit rejection of exact sorted arrays
// (unbounded memory).
type latencyHistogram struct {
	shards [shardCount]struct {
		mu   sync.Mutex
		hist *hdrhistogram.Histogram
	}
}

func newLatencyHistogram() *latencyHistogram {
	h := &latencyHistogram{}
	for i := range h.shards {
		h.shards[i].hist = hdrhistogram.New(minLatencyNs, maxLatencyNs, sigFigs)
	}
	return h
}

func (h *latencyHistogram) record(shardKey uint64, latencyNs int64) {
	if latencyNs < 0 {
		latencyNs = 0
	}
	s := &h.shards[shardKey%shardCount]
	s.mu.Lock()
	_ = s.hist.RecordValue(latencyNs)
	s.mu.Unlock()
}

// merged returns a single histogram combining all shards, read-consistent
// with respect to each shard's own lock (not a single atomic snapshot across
// all shards — acceptable per spec's bounded-drift allowance).
func (h *latencyHistogram) merged() *hdrhistogram.Histogram {
	out := hdrhistogram.New(minLatencyNs, maxLatencyNs, sigFigs)
	for i := range h.shards {
		s := &h.shards[i]
		s.mu.Lock()
		out.Merge(s.hist)
		s.mu.Unlock()
	}
	return out
}

// percentilesOf extracts latency_ns at each requested percentile (0-100
// scale) from hist. An empty histogram reports 0 at every percentile.
func percentilesOf(hist *hdrhistogram.Histogram, percentiles []float64) map[float64]int64 {
	out := make(map[float64]int64, len(percentiles))
	for _, p := range percentiles {
		out[p] = hist.ValueAtQuantile(p)
	}
	return out
}
