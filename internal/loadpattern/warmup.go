package loadpattern

import (
	"time"

	"github.com/pcraw4d/loadgen/internal/enginerr"
)

// WarmupCooldown wraps another pattern, leaving its TPSAt and TotalDuration
// untouched, but suppressing metric recording during a leading warmup
// window and a trailing cooldown window. The wrapped pattern still drives
// TPS throughout, including inside those windows.
type WarmupCooldown struct {
	inner    Pattern
	warmup   time.Duration
	cooldown time.Duration
}

// NewWarmupCooldown wraps inner with warmup/cooldown recording gates.
// Rejects a negative warmup or cooldown, or a combined warmup+cooldown that
// exceeds inner's total duration (when inner's duration is finite).
func NewWarmupCooldown(inner Pattern, warmup, cooldown time.Duration) (*WarmupCooldown, error) {
	if err := validateNonNegative("warmup", float64(warmup)); err != nil {
		return nil, err
	}
	if err := validateNonNegative("cooldown", float64(cooldown)); err != nil {
		return nil, err
	}
	if total := inner.TotalDuration(); total != Indefinite && warmup+cooldown > total {
		return nil, enginerr.NewValidationError("warmup+cooldown", errWarmupCooldownExceedsTotal)
	}
	return &WarmupCooldown{inner: inner, warmup: warmup, cooldown: cooldown}, nil
}

func (w *WarmupCooldown) TPSAt(elapsedMs int64) float64 { return w.inner.TPSAt(elapsedMs) }

func (w *WarmupCooldown) TotalDuration() time.Duration { return w.inner.TotalDuration() }

func (w *WarmupCooldown) SupportsWarmupCooldown() bool { return true }

func (w *WarmupCooldown) ShouldRecordMetrics(elapsedMs int64) bool {
	t := time.Duration(elapsedMs) * time.Millisecond
	if t < w.warmup {
		return false
	}
	if total := w.inner.TotalDuration(); total != Indefinite {
		if t >= total-w.cooldown {
			return false
		}
	}
	return true
}

var errWarmupCooldownExceedsTotal = errMsg("warmup+cooldown exceeds pattern total duration")
