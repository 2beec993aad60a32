// Package adaptive implements spec §4.6: AdaptiveLoadPattern, a stateful
// closed-loop controller that adjusts TPS from observed error rate and
// backpressure. Unlike every shape in internal/loadpattern, TPSAt here is
// not a pure function of elapsed time — it returns the controller's
// current scalar, guarded by a mutex per spec's explicit note that
// concurrent reads must observe a consistent value.
package adaptive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pcraw4d/loadgen/internal/loadpattern"
)

// Pattern is the stateful AdaptiveLoadPattern controller. It satisfies
// loadpattern.Pattern.
type Pattern struct {
	cfg Config

	mu               sync.RWMutex
	state            State
	currentTPS       float64
	stableTicks      int
	lastDecision     Decision
	lastExecCount    int64
	startedAt        time.Time
	sustainStartedAt time.Time
	terminalElapsed  time.Duration

	// rampDownWarn throttles the RAMP_DOWN log line so a sustained error
	// spike logs once per interval instead of once per tick.
	rampDownWarn rate.Sometimes
}

// New validates cfg and builds a Pattern in state INIT.
func New(cfg Config) (*Pattern, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Pattern{
		cfg:          cfg,
		state:        Init,
		rampDownWarn: rate.Sometimes{Interval: cfg.RampInterval},
	}, nil
}

// Start fixes the controller's time origin. Must be called once before the
// first Tick.
func (p *Pattern) Start(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startedAt = now
	p.currentTPS = p.cfg.InitialTPS
}

// TPSAt returns the controller's current TPS, ignoring elapsedMs: this
// pattern is stateful, not a pure function of elapsed time (spec §4.6).
func (p *Pattern) TPSAt(elapsedMs int64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTPS
}

// TotalDuration reports loadpattern.Indefinite until the controller enters
// TERMINAL, after which it reports the elapsed time at which that
// happened.
func (p *Pattern) TotalDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state != Terminal {
		return loadpattern.Indefinite
	}
	return p.terminalElapsed
}

func (p *Pattern) SupportsWarmupCooldown() bool             { return false }
func (p *Pattern) ShouldRecordMetrics(elapsedMs int64) bool { return true }

// State returns the controller's current state, for observability and
// tests.
func (p *Pattern) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Tick runs exactly one control-loop evaluation. Safe for concurrent use
// with TPSAt/State, but Tick calls themselves should be serialized by the
// caller (single control-loop goroutine), per spec's single-writer rule.
func (p *Pattern) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	execCount := p.cfg.MetricsProvider.ExecutionCount()
	samples := execCount - p.lastExecCount
	p.lastExecCount = execCount

	if p.state == Init {
		if samples < p.cfg.MinSamplesPerInterval {
			return
		}
		p.state = RampUp
		p.currentTPS = p.cfg.InitialTPS
	}

	var decision Decision
	if samples < p.cfg.MinSamplesPerInterval {
		decision = Hold
	} else {
		errorRate := p.cfg.MetricsProvider.FailureRatePercent() / 100
		backpressure := p.cfg.BackpressureProvider.Level()
		decision = p.cfg.DecisionPolicy(errorRate, backpressure, History{
			ConsecutiveStableTicks: p.stableTicks,
			LastDecision:           p.lastDecision,
		})
	}
	p.lastDecision = decision

	switch p.state {
	case RampUp:
		p.applyRampUp(decision, now)
	case RampDown:
		p.applyRampDown(decision)
	case Stable:
		p.applyStable(now)
	case Terminal:
		// no-op: controller has converged.
	}
}

func (p *Pattern) applyRampUp(decision Decision, now time.Time) {
	switch decision {
	case Up:
		next := min(p.cfg.MaxTPS, p.currentTPS+p.cfg.RampIncrement)
		if next == p.currentTPS {
			// Already pinned at max_tps: an Up decision can't move the
			// rate, so it behaves like Hold for stabilisation purposes.
			p.stableTicks++
			if p.stableTicks >= p.cfg.StableIntervalsRequired {
				p.state = Stable
				p.sustainStartedAt = now
			}
			break
		}
		p.currentTPS = next
		p.stableTicks = 0
	case Hold:
		p.stableTicks++
		if p.stableTicks >= p.cfg.StableIntervalsRequired {
			p.state = Stable
			p.sustainStartedAt = now
		}
	case Down:
		p.state = RampDown
		p.stableTicks = 0
		p.warnRampDown()
	}
}

func (p *Pattern) applyRampDown(decision Decision) {
	p.currentTPS = max(p.cfg.MinTPS, p.currentTPS-p.cfg.RampDecrement)
	switch decision {
	case Up, Hold:
		p.state = RampUp
		p.stableTicks = 0
	case Down:
		p.warnRampDown()
	}
}

// warnRampDown logs at most once per RampInterval while the controller
// keeps backing off, instead of flooding the sink on every tick of a
// sustained overload.
func (p *Pattern) warnRampDown() {
	p.rampDownWarn.Do(func() {
		p.cfg.Logger.Warn("adaptive pattern ramping down",
			zap.Float64("tps", p.currentTPS),
			zap.Int("stable_ticks", p.stableTicks),
		)
	})
}

func (p *Pattern) applyStable(now time.Time) {
	if now.Sub(p.sustainStartedAt) >= p.cfg.SustainDuration {
		p.state = Terminal
		p.terminalElapsed = now.Sub(p.startedAt)
	}
}

// Run drives the control loop on a real ticker until ctx is cancelled or
// the controller reaches TERMINAL. Intended for production use; tests
// drive Tick directly with a fake clock.
func (p *Pattern) Run(ctx context.Context) {
	p.Start(time.Now())
	ticker := time.NewTicker(p.cfg.RampInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.Tick(t)
			if p.State() == Terminal {
				return
			}
		}
	}
}
