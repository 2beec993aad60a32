package loadpattern

import "time"

// RampUp drives a linear ramp from 0 to max over duration d. Past d,
// TPSAt returns max (the last value the ramp reached), matching spec §8's
// RampUp(max, d).tps_at(2d) = max invariant.
type RampUp struct {
	base
	max      float64
	duration time.Duration
}

// NewRampUp builds a RampUp pattern. Rejects max<=0 or duration<=0.
func NewRampUp(max float64, duration time.Duration) (*RampUp, error) {
	if err := validatePositive("max", max); err != nil {
		return nil, err
	}
	if err := validatePositive("duration", float64(duration)); err != nil {
		return nil, err
	}
	return &RampUp{max: max, duration: duration}, nil
}

func (r *RampUp) TPSAt(elapsedMs int64) float64 {
	t := time.Duration(elapsedMs) * time.Millisecond
	if t >= r.duration {
		return r.max
	}
	if t <= 0 {
		return 0
	}
	return r.max * float64(t) / float64(r.duration)
}

func (r *RampUp) TotalDuration() time.Duration { return r.duration }

// RampUpToMax ramps linearly from 0 to max over R, then sustains max for S.
// Total duration is R+S.
type RampUpToMax struct {
	base
	max     float64
	ramp    time.Duration
	sustain time.Duration
}

// NewRampUpToMax builds a RampUpToMax pattern. Rejects max<=0, ramp<=0, or
// sustain<0.
func NewRampUpToMax(max float64, ramp, sustain time.Duration) (*RampUpToMax, error) {
	if err := validatePositive("max", max); err != nil {
		return nil, err
	}
	if err := validatePositive("ramp", float64(ramp)); err != nil {
		return nil, err
	}
	if err := validateNonNegative("sustain", float64(sustain)); err != nil {
		return nil, err
	}
	return &RampUpToMax{max: max, ramp: ramp, sustain: sustain}, nil
}

func (r *RampUpToMax) TPSAt(elapsedMs int64) float64 {
	t := time.Duration(elapsedMs) * time.Millisecond
	total := r.ramp + r.sustain
	if t >= total {
		return 0
	}
	if t < r.ramp {
		if t <= 0 {
			return 0
		}
		return r.max * float64(t) / float64(r.ramp)
	}
	return r.max
}

func (r *RampUpToMax) TotalDuration() time.Duration { return r.ramp + r.sustain }
