package backpressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}

func TestSystemConfig_Defaults(t *testing.T) {
	cfg := SystemConfig{}.withDefaults()
	assert.Equal(t, 90.0, cfg.CPUSaturationPercent)
	assert.Equal(t, 90.0, cfg.MemorySaturationPercent)
	assert.Greater(t, cfg.SampleInterval.Nanoseconds(), int64(0))
}

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{}.withDefaults()
	assert.Greater(t, cfg.DialTimeout.Nanoseconds(), int64(0))
	assert.Equal(t, int64(1000), cfg.SaturationDepth)
}

func TestSystemProvider_DescriptionBeforeLevelReportsZero(t *testing.T) {
	p := NewSystemProvider(SystemConfig{})
	assert.Equal(t, "cpu=0.00", p.Description())
}
