package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcraw4d/loadgen/internal/loadpattern"
)

// fakeMetrics is a MetricsProvider whose failure rate and execution count
// are set by the test on each tick, modelling metrics_provider stepping
// over the course of a run (spec §8 scenario 6).
type fakeMetrics struct {
	execCount   int64
	failCount   int64
	failPercent float64
}

func (f *fakeMetrics) FailureRatePercent() float64 { return f.failPercent }
func (f *fakeMetrics) ExecutionCount() int64        { return f.execCount }
func (f *fakeMetrics) FailureCount() int64          { return f.failCount }

func baseConfig(mp MetricsProvider) Config {
	return Config{
		InitialTPS:              10,
		RampIncrement:           10,
		RampDecrement:           10,
		RampInterval:            time.Second,
		MaxTPS:                  200,
		MinTPS:                  1,
		SustainDuration:         5 * time.Second,
		StableIntervalsRequired: 3,
		ErrorThreshold:          0.1,
		MetricsProvider:         mp,
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestPattern_ConvergesToStableBelowErrorThreshold(t *testing.T) {
	mp := &fakeMetrics{failPercent: 0}
	p, err := New(baseConfig(mp))
	require.NoError(t, err)

	now := time.Unix(0, 0)
	p.Start(now)

	for i := 0; i < 200; i++ {
		mp.execCount += 50
		now = now.Add(time.Second)
		p.Tick(now)
		assert.LessOrEqual(t, p.TPSAt(0), 200.0)
		if p.State() == Stable || p.State() == Terminal {
			break
		}
	}

	assert.Contains(t, []State{Stable, Terminal}, p.State())
}

func TestPattern_RampsDownOnHighErrorRate(t *testing.T) {
	mp := &fakeMetrics{failPercent: 0}
	p, err := New(baseConfig(mp))
	require.NoError(t, err)

	now := time.Unix(0, 0)
	p.Start(now)

	for i := 0; i < 5; i++ {
		mp.execCount += 50
		now = now.Add(time.Second)
		p.Tick(now)
	}
	tpsBeforeSpike := p.TPSAt(0)
	require.Greater(t, tpsBeforeSpike, 10.0)

	mp.failPercent = 20
	mp.execCount += 50
	now = now.Add(time.Second)
	p.Tick(now)
	require.Equal(t, RampDown, p.State())

	mp.execCount += 50
	now = now.Add(time.Second)
	p.Tick(now)

	assert.Equal(t, RampDown, p.State())
	assert.Less(t, p.TPSAt(0), tpsBeforeSpike)
}

func TestPattern_NeverExceedsMaxTPS(t *testing.T) {
	mp := &fakeMetrics{failPercent: 0}
	cfg := baseConfig(mp)
	cfg.MaxTPS = 50
	p, err := New(cfg)
	require.NoError(t, err)

	now := time.Unix(0, 0)
	p.Start(now)
	for i := 0; i < 30; i++ {
		mp.execCount += 50
		now = now.Add(time.Second)
		p.Tick(now)
		assert.LessOrEqual(t, p.TPSAt(0), 50.0)
	}
}

func TestPattern_HoldBelowMinimumSamples(t *testing.T) {
	mp := &fakeMetrics{failPercent: 0}
	cfg := baseConfig(mp)
	cfg.MinSamplesPerInterval = 1000
	p, err := New(cfg)
	require.NoError(t, err)

	now := time.Unix(0, 0)
	p.Start(now)
	mp.execCount = 1
	now = now.Add(time.Second)
	p.Tick(now)

	assert.Equal(t, Init, p.State())
}

func TestPattern_TotalDurationIndefiniteUntilTerminal(t *testing.T) {
	mp := &fakeMetrics{failPercent: 0}
	p, err := New(baseConfig(mp))
	require.NoError(t, err)
	now := time.Unix(0, 0)
	p.Start(now)

	assert.Equal(t, loadpattern.Indefinite, p.TotalDuration())
}

func TestDefaultDecisionPolicy_BackpressureTakesPrecedence(t *testing.T) {
	policy := NewDefaultDecisionPolicy(0.1)
	assert.Equal(t, Down, policy(0.0, 0.8, History{}))
	assert.Equal(t, Down, policy(0.2, 0.0, History{}))
	assert.Equal(t, Hold, policy(0.0, 0.5, History{}))
	assert.Equal(t, Up, policy(0.0, 0.0, History{}))
}
