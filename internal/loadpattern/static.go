package loadpattern

import "time"

// Static drives a constant rate r for a fixed duration d.
type Static struct {
	base
	rate     float64
	duration time.Duration
}

// NewStatic builds a Static pattern. Rejects rate<=0 or duration<=0.
func NewStatic(rate float64, duration time.Duration) (*Static, error) {
	if err := validatePositive("rate", rate); err != nil {
		return nil, err
	}
	if err := validatePositive("duration", float64(duration)); err != nil {
		return nil, err
	}
	return &Static{rate: rate, duration: duration}, nil
}

func (s *Static) TPSAt(elapsedMs int64) float64 {
	if time.Duration(elapsedMs)*time.Millisecond >= s.duration {
		return 0
	}
	return s.rate
}

func (s *Static) TotalDuration() time.Duration { return s.duration }
