// Package loadpattern implements the pure tps_at(elapsed) → target-rate
// abstraction (spec §3/§4.1) and its concrete shapes: Static, RampUp,
// RampUpToMax, Step, SineWave, Spike, and WarmupCooldown. AdaptiveLoadPattern
// lives in internal/adaptive since it is stateful, not pure.
package loadpattern

import (
	"time"

	"github.com/pcraw4d/loadgen/internal/enginerr"
)

// Indefinite is the sentinel TotalDuration reported by a pattern whose
// total length is not known a priori (only AdaptiveLoadPattern does this,
// before it reaches its TERMINAL state). The engine treats it as "continue
// until externally stopped."
const Indefinite time.Duration = -1

// Pattern is a pure mathematical object mapping elapsed wall-clock time to a
// target throughput. Implementations must be safe for concurrent TPSAt
// queries and must be total: defined for every elapsedMs >= 0.
type Pattern interface {
	// TPSAt returns the target transactions-per-second at elapsedMs
	// milliseconds into the run. Never negative. Zero past TotalDuration
	// for finite shapes.
	TPSAt(elapsedMs int64) float64

	// TotalDuration returns the pattern's fixed length, or Indefinite if
	// unknown.
	TotalDuration() time.Duration

	// SupportsWarmupCooldown reports whether this pattern gates metric
	// recording during leading/trailing windows. Only WarmupCooldown
	// returns true.
	SupportsWarmupCooldown() bool

	// ShouldRecordMetrics reports whether an execution at elapsedMs should
	// be fed into the metrics collector. Defaults to true; only
	// WarmupCooldown suppresses it.
	ShouldRecordMetrics(elapsedMs int64) bool
}

// base implements the default SupportsWarmupCooldown/ShouldRecordMetrics
// pair so concrete shapes only need to implement TPSAt and TotalDuration.
type base struct{}

func (base) SupportsWarmupCooldown() bool            { return false }
func (base) ShouldRecordMetrics(elapsedMs int64) bool { return true }

func validatePositive(field string, v float64) error {
	if v <= 0 {
		return enginerr.NewValidationError(field, errPositive)
	}
	return nil
}

func validateNonNegative(field string, v float64) error {
	if v < 0 {
		return enginerr.NewValidationError(field, errNonNegative)
	}
	return nil
}

var (
	errPositive    = errMsg("must be > 0")
	errNonNegative = errMsg("must be >= 0")
	errEmptyStages = errMsg("must not be empty")
)

type errMsg string

func (e errMsg) Error() string { return string(e) }
