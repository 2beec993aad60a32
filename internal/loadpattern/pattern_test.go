package loadpattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_RejectsInvalidInputs(t *testing.T) {
	_, err := NewStatic(0, time.Second)
	assert.Error(t, err)
	_, err = NewStatic(10, 0)
	assert.Error(t, err)
}

func TestStatic_TPSAt(t *testing.T) {
	s, err := NewStatic(100, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.TPSAt(0))
	assert.Equal(t, 100.0, s.TPSAt(9999))
	assert.Equal(t, 0.0, s.TPSAt(10000))
	assert.Equal(t, 0.0, s.TPSAt(20000))
}

func TestRampUp_Invariants(t *testing.T) {
	r, err := NewRampUp(200, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.TPSAt(0))
	assert.Equal(t, 200.0, r.TPSAt(5000))
	assert.Equal(t, 200.0, r.TPSAt(10000))
	assert.InDelta(t, 100.0, r.TPSAt(2500), 0.01)
}

func TestRampUpToMax(t *testing.T) {
	r, err := NewRampUpToMax(100, 3*time.Second, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.TPSAt(0))
	assert.InDelta(t, 50.0, r.TPSAt(1500), 0.01)
	assert.Equal(t, 100.0, r.TPSAt(3000))
	assert.Equal(t, 100.0, r.TPSAt(4999))
	assert.Equal(t, 0.0, r.TPSAt(5000))
	assert.Equal(t, 5*time.Second, r.TotalDuration())
}

func TestStep_PastEndReturnsZero(t *testing.T) {
	s, err := NewStep([]StepStage{
		{Rate: 25, Duration: 3 * time.Second},
		{Rate: 50, Duration: 3 * time.Second},
		{Rate: 75, Duration: 4 * time.Second},
	})
	require.NoError(t, err)
	assert.Equal(t, 25.0, s.TPSAt(0))
	assert.Equal(t, 25.0, s.TPSAt(2999))
	assert.Equal(t, 50.0, s.TPSAt(3000))
	assert.Equal(t, 75.0, s.TPSAt(6500))
	assert.Equal(t, 0.0, s.TPSAt(10000))
	assert.Equal(t, 0.0, s.TPSAt(10001))
	assert.Equal(t, 10*time.Second, s.TotalDuration())
}

func TestStep_RejectsEmpty(t *testing.T) {
	_, err := NewStep(nil)
	assert.Error(t, err)
}

func TestSineWave_NeverNegative(t *testing.T) {
	s, err := NewSineWave(5, 20, time.Second, 10*time.Second)
	require.NoError(t, err)
	for ms := int64(0); ms < 10000; ms += 17 {
		assert.GreaterOrEqual(t, s.TPSAt(ms), 0.0)
	}
}

func TestSpike_ValidatorRejectsDGreaterEqualInterval(t *testing.T) {
	_, err := NewSpike(10, 100, time.Second, time.Second, 5*time.Second)
	assert.Error(t, err)
	_, err = NewSpike(10, 100, time.Second, 2*time.Second, 5*time.Second)
	assert.Error(t, err)
}

func TestSpike_Shape(t *testing.T) {
	s, err := NewSpike(10, 100, time.Second, 200*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.TPSAt(0))
	assert.Equal(t, 100.0, s.TPSAt(199))
	assert.Equal(t, 10.0, s.TPSAt(200))
	assert.Equal(t, 10.0, s.TPSAt(999))
	assert.Equal(t, 100.0, s.TPSAt(1000))
	assert.Equal(t, 0.0, s.TPSAt(5000))
}

func TestWarmupCooldown_PreservesUnderlyingTPSAndDuration(t *testing.T) {
	inner, err := NewStatic(50, 10*time.Second)
	require.NoError(t, err)
	w, err := NewWarmupCooldown(inner, time.Second, time.Second)
	require.NoError(t, err)

	assert.Equal(t, inner.TotalDuration(), w.TotalDuration())
	for ms := int64(0); ms < 10000; ms += 250 {
		assert.Equal(t, inner.TPSAt(ms), w.TPSAt(ms))
	}

	assert.True(t, w.SupportsWarmupCooldown())
	assert.False(t, w.ShouldRecordMetrics(0))
	assert.False(t, w.ShouldRecordMetrics(999))
	assert.True(t, w.ShouldRecordMetrics(1000))
	assert.True(t, w.ShouldRecordMetrics(8999))
	assert.False(t, w.ShouldRecordMetrics(9000))
}

func TestWarmupCooldown_RejectsWindowExceedingTotal(t *testing.T) {
	inner, err := NewStatic(50, time.Second)
	require.NoError(t, err)
	_, err = NewWarmupCooldown(inner, 600*time.Millisecond, 600*time.Millisecond)
	assert.Error(t, err)
}
