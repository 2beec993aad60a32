package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcraw4d/loadgen/internal/record"
	"github.com/pcraw4d/loadgen/internal/task"
)

func rec(idx uint64, durationNs int64, outcome task.Outcome) record.ExecutionRecord {
	return record.ExecutionRecord{
		StartNs:      0,
		EndNs:        durationNs,
		Outcome:      outcome,
		IterationIdx: idx,
	}
}

func TestCollector_TotalEqualsSuccessPlusFailure(t *testing.T) {
	c := NewCollector(Config{}, time.Now())

	for i := uint64(0); i < 50; i++ {
		c.Record(rec(i, int64(i+1)*1000, task.Success(nil)))
	}
	for i := uint64(50); i < 70; i++ {
		c.Record(rec(i, int64(i+1)*1000, task.Failure(errors.New("x"))))
	}

	snap := c.Snapshot()
	assert.Equal(t, int64(70), snap.TotalCount)
	assert.Equal(t, int64(50), snap.SuccessCount)
	assert.Equal(t, int64(20), snap.FailureCount)
	assert.Equal(t, snap.TotalCount, snap.SuccessCount+snap.FailureCount)
}

func TestCollector_PercentilesWeaklyMonotonic(t *testing.T) {
	c := NewCollector(Config{Percentiles: []float64{50, 90, 95, 99, 99.9}}, time.Now())

	for i := uint64(0); i < 1000; i++ {
		c.Record(rec(i, int64(i+1)*1000, task.Success(nil)))
	}

	snap := c.Snapshot()
	prev := int64(0)
	for _, p := range []float64{50, 90, 95, 99, 99.9} {
		v, ok := snap.SuccessPercentileNs[p]
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestCollector_Snapshot_IdempotentWhenQuiesced(t *testing.T) {
	c := NewCollector(Config{}, time.Now())
	for i := uint64(0); i < 10; i++ {
		c.Record(rec(i, 1000, task.Success(nil)))
	}

	s1 := c.Snapshot()
	s2 := c.Snapshot()

	assert.Equal(t, s1.TotalCount, s2.TotalCount)
	assert.Equal(t, s1.SuccessCount, s2.SuccessCount)
	assert.Equal(t, s1.FailureCount, s2.FailureCount)
	assert.Equal(t, s1.SuccessPercentileNs, s2.SuccessPercentileNs)
}

func TestCollector_Close_IsIdempotentAndStopsRecording(t *testing.T) {
	c := NewCollector(Config{}, time.Now())
	c.Record(rec(0, 1000, task.Success(nil)))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	c.Record(rec(1, 1000, task.Success(nil)))
	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.TotalCount)
}

func TestCollector_RecordClientMetric_LastWriterWins(t *testing.T) {
	c := NewCollector(Config{}, time.Now())
	c.RecordClientMetric("pool.inuse", 3)
	c.RecordClientMetric("pool.inuse", 7)

	snap := c.Snapshot()
	assert.Equal(t, float64(7), snap.ClientMetrics["pool.inuse"])
}

func TestCollector_ConcurrentRecord_NoRaceOnCounts(t *testing.T) {
	c := NewCollector(Config{}, time.Now())
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for i := uint64(0); i < 200; i++ {
				c.Record(rec(base+i, int64(i+1)*100, task.Success(nil)))
			}
		}(uint64(w) * 1000)
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(1600), snap.TotalCount)
	assert.Equal(t, int64(1600), snap.SuccessCount)
}

func TestCollector_MetricsProviderView(t *testing.T) {
	c := NewCollector(Config{}, time.Now())
	for i := uint64(0); i < 8; i++ {
		c.Record(rec(i, 1000, task.Success(nil)))
	}
	for i := uint64(8); i < 10; i++ {
		c.Record(rec(i, 1000, task.Failure(errors.New("x"))))
	}

	assert.Equal(t, int64(10), c.ExecutionCount())
	assert.Equal(t, int64(2), c.FailureCount())
	assert.InDelta(t, 20.0, c.FailureRatePercent(), 0.001)
}

func TestSnapshot_DerivedRates(t *testing.T) {
	snap := Snapshot{TotalCount: 100, SuccessCount: 80, FailureCount: 20, ElapsedMs: 1000}
	assert.InDelta(t, 100.0, snap.ResponseTPS(), 0.001)
	assert.InDelta(t, 80.0, snap.SuccessTPS(), 0.001)
	assert.InDelta(t, 20.0, snap.FailureTPS(), 0.001)
	assert.InDelta(t, 80.0, snap.SuccessRate(), 0.001)
}

func TestSnapshot_ZeroElapsedDoesNotPanic(t *testing.T) {
	snap := Snapshot{TotalCount: 10}
	assert.Equal(t, 0.0, snap.ResponseTPS())
	assert.Equal(t, 0.0, snap.SuccessTPS())
	assert.Equal(t, 0.0, snap.FailureTPS())
}

func TestClassifyCapacity_ErrorsTakePrecedenceOverLatency(t *testing.T) {
	snap := Snapshot{
		TotalCount:          100,
		FailureCount:        20,
		SuccessPercentileNs: map[float64]int64{99: int64(2 * time.Second)},
	}
	hint := classifyCapacity(snap, 0.05, int64(time.Second))
	assert.Equal(t, BottleneckErrors, hint.Bottleneck)
}

func TestClassifyCapacity_LatencyWhenErrorsLow(t *testing.T) {
	snap := Snapshot{
		TotalCount:          100,
		FailureCount:        1,
		SuccessPercentileNs: map[float64]int64{99: int64(2 * time.Second)},
	}
	hint := classifyCapacity(snap, 0.05, int64(time.Second))
	assert.Equal(t, BottleneckLatency, hint.Bottleneck)
}

func TestClassifyCapacity_NoneWhenHealthy(t *testing.T) {
	snap := Snapshot{
		TotalCount:          100,
		FailureCount:        1,
		SuccessPercentileNs: map[float64]int64{99: int64(10 * time.Millisecond)},
	}
	hint := classifyCapacity(snap, 0.05, int64(time.Second))
	assert.Equal(t, BottleneckNone, hint.Bottleneck)
}
