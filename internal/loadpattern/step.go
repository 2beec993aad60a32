package loadpattern

import (
	"fmt"
	"time"

	"github.com/pcraw4d/loadgen/internal/enginerr"
)

// StepStage is one (rate, duration) segment of a Step pattern.
type StepStage struct {
	Rate     float64
	Duration time.Duration
}

// Step walks an ordered list of (rate, duration) stages. TPSAt looks up
// which stage elapsedMs falls into by cumulative offset; past the last
// stage it returns 0.
type Step struct {
	base
	stages []StepStage
	total  time.Duration
}

// NewStep builds a Step pattern from an ordered list of stages. Rejects an
// empty list or any stage with rate<=0 or duration<=0.
func NewStep(stages []StepStage) (*Step, error) {
	if len(stages) == 0 {
		return nil, enginerr.NewValidationError("stages", errEmptyStages)
	}
	var total time.Duration
	for i, s := range stages {
		if s.Rate <= 0 {
			return nil, enginerr.NewValidationError(fmt.Sprintf("stages[%d].rate", i), errPositive)
		}
		if s.Duration <= 0 {
			return nil, enginerr.NewValidationError(fmt.Sprintf("stages[%d].duration", i), errPositive)
		}
		total += s.Duration
	}
	cp := make([]StepStage, len(stages))
	copy(cp, stages)
	return &Step{stages: cp, total: total}, nil
}

func (s *Step) TPSAt(elapsedMs int64) float64 {
	t := time.Duration(elapsedMs) * time.Millisecond
	if t < 0 {
		t = 0
	}
	var offset time.Duration
	for _, stage := range s.stages {
		if t < offset+stage.Duration {
			return stage.Rate
		}
		offset += stage.Duration
	}
	return 0
}

func (s *Step) TotalDuration() time.Duration { return s.total }
