package loadpattern

import (
	"fmt"
	"time"

	"github.com/pcraw4d/loadgen/internal/enginerr"
)

// Spike divides the run into equal-length intervals; within each interval,
// the first spikeDuration is driven at spikeRate, the remainder at
// baseRate. Requires spikeDuration < interval.
type Spike struct {
	base
	baseRate      float64
	spikeRate     float64
	interval      time.Duration
	spikeDuration time.Duration
	duration      time.Duration
}

// NewSpike builds a Spike pattern. Rejects non-positive rates/durations and
// spikeDuration >= interval.
func NewSpike(baseRate, spikeRate float64, interval, spikeDuration, duration time.Duration) (*Spike, error) {
	if err := validatePositive("baseRate", baseRate); err != nil {
		return nil, err
	}
	if err := validatePositive("spikeRate", spikeRate); err != nil {
		return nil, err
	}
	if err := validatePositive("interval", float64(interval)); err != nil {
		return nil, err
	}
	if err := validatePositive("spikeDuration", float64(spikeDuration)); err != nil {
		return nil, err
	}
	if err := validatePositive("duration", float64(duration)); err != nil {
		return nil, err
	}
	if spikeDuration >= interval {
		return nil, enginerr.NewValidationError("spikeDuration",
			fmt.Errorf("spikeDuration (%s) must be < interval (%s)", spikeDuration, interval))
	}
	return &Spike{
		baseRate:      baseRate,
		spikeRate:     spikeRate,
		interval:      interval,
		spikeDuration: spikeDuration,
		duration:      duration,
	}, nil
}

func (s *Spike) TPSAt(elapsedMs int64) float64 {
	t := time.Duration(elapsedMs) * time.Millisecond
	if t >= s.duration {
		return 0
	}
	offsetInInterval := t % s.interval
	if offsetInInterval < s.spikeDuration {
		return s.spikeRate
	}
	return s.baseRate
}

func (s *Spike) TotalDuration() time.Duration { return s.duration }
