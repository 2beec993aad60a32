// Package backpressure implements the optional BackpressureProvider
// collaborator consumed by AdaptiveLoadPattern (spec §4.6/§6), grounded on
// the teacher's resource_alerting_scaling.go use of gopsutil/v3 for
// CPU/memory sampling and on kyb-platform's Redis-backed caches for
// queue-depth style backpressure.
package backpressure

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemConfig controls which OS-level signal dominates the reported
// level and the point each is considered fully saturated.
type SystemConfig struct {
	CPUSaturationPercent    float64
	MemorySaturationPercent float64
	SampleInterval          time.Duration
}

func (c SystemConfig) withDefaults() SystemConfig {
	if c.CPUSaturationPercent <= 0 {
		c.CPUSaturationPercent = 90
	}
	if c.MemorySaturationPercent <= 0 {
		c.MemorySaturationPercent = 90
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = 200 * time.Millisecond
	}
	return c
}

// SystemProvider reports backpressure as the worse of observed CPU and
// memory utilisation, each normalised to its configured saturation point.
type SystemProvider struct {
	cfg SystemConfig

	// lastCPUBits/lastMemBits cache the most recent sample (as float64
	// bits) so Description reports the same reading Level just computed,
	// rather than taking a fresh, possibly differing sample.
	lastCPUBits uint64
	lastMemBits uint64
}

// NewSystemProvider builds a SystemProvider sampling the host via
// gopsutil/v3.
func NewSystemProvider(cfg SystemConfig) *SystemProvider {
	return &SystemProvider{cfg: cfg.withDefaults()}
}

// Level samples CPU and memory utilisation and returns the larger of the
// two, each clamped to [0,1]. A sampling failure degrades to 0 (no
// backpressure reported) rather than failing the caller — this provider
// is advisory input to the adaptive controller, never load-bearing.
func (p *SystemProvider) Level() float64 {
	cpuLevel := p.cpuLevel()
	memLevel := p.memLevel()
	atomic.StoreUint64(&p.lastCPUBits, math.Float64bits(cpuLevel))
	atomic.StoreUint64(&p.lastMemBits, math.Float64bits(memLevel))
	if cpuLevel > memLevel {
		return cpuLevel
	}
	return memLevel
}

func (p *SystemProvider) cpuLevel() float64 {
	percents, err := cpu.Percent(p.cfg.SampleInterval, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return clamp01(percents[0] / p.cfg.CPUSaturationPercent)
}

func (p *SystemProvider) memLevel() float64 {
	info, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return clamp01(info.UsedPercent / p.cfg.MemorySaturationPercent)
}

// Description reports which signal dominated the most recent Level call,
// for logging. Call Level first; before that it reports "cpu=0.00".
func (p *SystemProvider) Description() string {
	cpuLevel := math.Float64frombits(atomic.LoadUint64(&p.lastCPUBits))
	memLevel := math.Float64frombits(atomic.LoadUint64(&p.lastMemBits))
	if cpuLevel >= memLevel {
		return fmt.Sprintf("cpu=%.2f", cpuLevel)
	}
	return fmt.Sprintf("memory=%.2f", memLevel)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
