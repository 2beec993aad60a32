package adaptive

import (
	"math"
	"time"

	"github.com/pcraw4d/loadgen/internal/enginerr"
	"github.com/pcraw4d/loadgen/internal/observability"
)

// Config enumerates AdaptiveLoadPattern's control knobs (spec §4.6).
type Config struct {
	InitialTPS              float64
	RampIncrement           float64
	RampDecrement           float64
	RampInterval            time.Duration
	MaxTPS                  float64
	MinTPS                  float64
	SustainDuration         time.Duration
	StableIntervalsRequired int
	ErrorThreshold          float64

	MetricsProvider      MetricsProvider
	BackpressureProvider BackpressureProvider
	DecisionPolicy       DecisionPolicy

	// MinSamplesPerInterval is the minimum execution-count delta required
	// within a control tick before the policy is consulted; below this the
	// tick is forced to Hold. Defaults to 1.
	MinSamplesPerInterval int64

	// Logger receives a rate-limited warning each time the controller
	// enters RAMP_DOWN. Defaults to a no-op logger.
	Logger *observability.Logger
}

func (c Config) withDefaults() Config {
	if c.MinTPS == 0 {
		c.MinTPS = 1
	}
	if c.MaxTPS == 0 {
		c.MaxTPS = math.Inf(1)
	}
	if c.BackpressureProvider == nil {
		c.BackpressureProvider = noBackpressure{}
	}
	if c.DecisionPolicy == nil {
		c.DecisionPolicy = NewDefaultDecisionPolicy(c.ErrorThreshold)
	}
	if c.MinSamplesPerInterval <= 0 {
		c.MinSamplesPerInterval = 1
	}
	if c.Logger == nil {
		c.Logger = observability.NewNop()
	}
	return c
}

func (c Config) validate() error {
	if c.InitialTPS < 0 {
		return enginerr.NewValidationError("initial_tps", errNonNegative)
	}
	if c.RampIncrement <= 0 {
		return enginerr.NewValidationError("ramp_increment", errPositive)
	}
	if c.RampDecrement <= 0 {
		return enginerr.NewValidationError("ramp_decrement", errPositive)
	}
	if c.RampInterval <= 0 {
		return enginerr.NewValidationError("ramp_interval", errPositive)
	}
	if c.MaxTPS <= 0 {
		return enginerr.NewValidationError("max_tps", errPositive)
	}
	if c.MinTPS < 0 {
		return enginerr.NewValidationError("min_tps", errNonNegative)
	}
	if c.MinTPS > c.MaxTPS {
		return enginerr.NewValidationError("min_tps", errMinExceedsMax)
	}
	if c.StableIntervalsRequired <= 0 {
		return enginerr.NewValidationError("stable_intervals_required", errPositive)
	}
	if c.ErrorThreshold < 0 || c.ErrorThreshold > 1 {
		return enginerr.NewValidationError("error_threshold", errUnitInterval)
	}
	if c.MetricsProvider == nil {
		return enginerr.NewValidationError("metrics_provider", errRequired)
	}
	return nil
}

type errMsg string

func (e errMsg) Error() string { return string(e) }

var (
	errPositive      = errMsg("must be > 0")
	errNonNegative   = errMsg("must be >= 0")
	errMinExceedsMax = errMsg("min_tps must be <= max_tps")
	errUnitInterval  = errMsg("must be within [0,1]")
	errRequired      = errMsg("must not be nil")
)
