package loadpattern

import (
	"math"
	"time"
)

// SineWave drives mean + amplitude*sin(2*pi*(t mod period)/period), clamped
// to >= 0. Total duration is independent of the oscillation period.
type SineWave struct {
	base
	mean      float64
	amplitude float64
	period    time.Duration
	duration  time.Duration
}

// NewSineWave builds a SineWave pattern. Rejects duration<=0, period<=0, or
// mean<0. Amplitude may exceed mean; TPSAt clamps the result to >= 0.
func NewSineWave(mean, amplitude float64, period, duration time.Duration) (*SineWave, error) {
	if err := validateNonNegative("mean", mean); err != nil {
		return nil, err
	}
	if err := validatePositive("period", float64(period)); err != nil {
		return nil, err
	}
	if err := validatePositive("duration", float64(duration)); err != nil {
		return nil, err
	}
	return &SineWave{mean: mean, amplitude: amplitude, period: period, duration: duration}, nil
}

func (s *SineWave) TPSAt(elapsedMs int64) float64 {
	t := time.Duration(elapsedMs) * time.Millisecond
	if t >= s.duration {
		return 0
	}
	phase := math.Mod(float64(t), float64(s.period)) / float64(s.period)
	v := s.mean + s.amplitude*math.Sin(2*math.Pi*phase)
	if v < 0 {
		return 0
	}
	return v
}

func (s *SineWave) TotalDuration() time.Duration { return s.duration }
