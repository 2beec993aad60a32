// Package engine implements spec §4.5/§5: ExecutionEngine, the lifecycle
// and worker-pool orchestrator that wires a LoadPattern, a RateController,
// a TaskExecutor, and a MetricsCollector into one run. Grounded on the
// teacher's EnhancedLoadTester (services/risk-assessment-service/internal/
// loadtesting) for the run-config/lifecycle shape, generalized from its
// fixed HTTP-benchmarking semantics to the spec's Task-contract-driven
// model.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pcraw4d/loadgen/internal/enginerr"
	"github.com/pcraw4d/loadgen/internal/executor"
	"github.com/pcraw4d/loadgen/internal/loadpattern"
	"github.com/pcraw4d/loadgen/internal/observability"
	"github.com/pcraw4d/loadgen/internal/ratecontroller"
	"github.com/pcraw4d/loadgen/internal/record"
	"github.com/pcraw4d/loadgen/internal/runctx"
	"github.com/pcraw4d/loadgen/internal/task"
)

// Engine orchestrates one run of a Task against a LoadPattern. Build once,
// call Run once; Stop may be called concurrently with Run to request an
// early, graceful stop.
type Engine struct {
	cfg   Config
	state *runState
	rc    runctx.RunContext

	abandoned int64 // atomic count of executions abandoned at force timeout

	// drainWarn throttles drain/cancellation warning logs so a sustained
	// overload on a long-lived engine doesn't flood the log sink.
	drainWarn rate.Sometimes
}

// Build validates cfg and prepares an Engine. Per spec §7, malformed
// configuration is rejected here, eagerly, before any worker starts.
func Build(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	state := newRunState(cfg.RunID)
	rc := runctx.RunContext{
		RunID:       state.runID,
		TaskName:    cfg.TaskName,
		PatternName: cfg.PatternName,
		ConfigKV:    map[string]string{},
		SystemInfo:  map[string]string{},
	}
	return &Engine{
		cfg:       cfg,
		state:     state,
		rc:        rc,
		drainWarn: rate.Sometimes{Interval: time.Second},
	}, nil
}

// RunID returns the run's identifier, generated at Build time if none was
// supplied.
func (e *Engine) RunID() string { return e.state.runID }

// Stop requests a graceful stop: the dispatch loop exits at the next
// opportunity and the run proceeds to drain in-flight executions.
func (e *Engine) Stop() { e.state.Stop() }

// Run executes the engine's full lifecycle: init, dispatch loop, drain,
// teardown. It blocks until the run terminates — elapsed >= total_duration,
// Stop was called, ctx was cancelled, or an unrecoverable ExecutionError
// occurred.
func (e *Engine) Run(ctx context.Context) error {
	logger := e.cfg.Logger.With(zap.String("run_id", e.state.runID))

	if err := e.cfg.Task.Init(ctx); err != nil {
		return enginerr.NewExecutionError("init", err)
	}

	now := time.Now()
	e.state.start(now)
	e.rc.StartTime = now

	rc := ratecontroller.New(e.cfg.Pattern)
	rc.Start()

	ex := executor.New(e.cfg.Task, e.cfg.Tracer, func() int64 { return time.Now().UnixNano() })

	poolSize := poolSizeFor(e.cfg.Task.ThreadStrategy(), e.cfg)
	pool := newWorkerPool(poolSize)

	var wg sync.WaitGroup
	var inFlight sync.Map // iterationIdx -> *inFlightEntry

	runCtx := runctx.WithRunContext(ctx, e.rc)

	e.dispatchLoop(runCtx, rc, ex, pool, &wg, &inFlight, logger)

	e.drain(&wg, &inFlight, logger)

	if err := e.cfg.Task.Teardown(context.Background()); err != nil {
		logger.Warn("task teardown failed", zap.Error(err))
	}

	e.rc.EndTime = time.Now()
	if err := e.cfg.Collector.Close(); err != nil {
		logger.Warn("metrics collector close failed", zap.Error(err))
	}

	return nil
}

// inFlightEntry tracks one dispatched-but-not-yet-completed iteration:
// cancel lets drain's force-timeout path actually signal the running
// goroutine to stop (instead of merely reporting it abandoned while it
// keeps running), and recorded CAS-guards against the real execution and
// the synthesized abandonment record both landing in the collector.
type inFlightEntry struct {
	startNs  int64
	cancel   context.CancelFunc
	recorded int32 // atomic
}

func (e *Engine) dispatchLoop(
	ctx context.Context,
	rc *ratecontroller.RateController,
	ex *executor.TaskExecutor,
	pool *workerPool,
	wg *sync.WaitGroup,
	inFlight *sync.Map,
	logger *observability.Logger,
) {
	for {
		if e.state.Stopped() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Re-read every iteration rather than caching once: a stateful
		// pattern like adaptive.Pattern reports loadpattern.Indefinite until
		// it reaches TERMINAL, at which point it starts reporting a real
		// duration and the run must stop.
		if total := e.cfg.Pattern.TotalDuration(); total != loadpattern.Indefinite && rc.ElapsedMs() >= total.Milliseconds() {
			return
		}

		if err := rc.ReleaseNext(ctx); err != nil {
			return
		}

		if !pool.acquire(ctx.Done()) {
			return
		}

		idx := e.state.nextIterationIdx()
		scheduledNs := time.Now().UnixNano()
		execCtx, cancel := context.WithCancel(ctx)
		entry := &inFlightEntry{startNs: scheduledNs, cancel: cancel}
		inFlight.Store(idx, entry)
		wg.Add(1)

		go func(idx uint64, scheduledNs int64, execCtx context.Context, entry *inFlightEntry) {
			defer wg.Done()
			defer pool.release()
			defer inFlight.Delete(idx)
			defer entry.cancel()

			rec := ex.ExecuteWithMetrics(execCtx, idx, e.state.runID, scheduledNs)
			if !atomic.CompareAndSwapInt32(&entry.recorded, 0, 1) {
				// drain's force-timeout path already synthesized an
				// abandonment record for this iteration; don't double-count.
				return
			}
			elapsedMs := rc.ElapsedMs()
			if e.cfg.Pattern.ShouldRecordMetrics(elapsedMs) {
				e.cfg.Collector.Record(rec)
			}
		}(idx, scheduledNs, execCtx, entry)
	}
}

func (e *Engine) drain(wg *sync.WaitGroup, inFlight *sync.Map, logger *observability.Logger) {
	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		return
	case <-time.After(e.cfg.DrainTimeout):
	}

	e.drainWarn.Do(func() {
		logger.Warn("drain timeout exceeded, waiting for force timeout before abandoning in-flight executions")
	})

	select {
	case <-doneCh:
		return
	case <-time.After(e.cfg.ForceTimeout):
	}

	remaining := 0
	inFlight.Range(func(key, value any) bool {
		idx := key.(uint64)
		entry := value.(*inFlightEntry)

		// Actually terminate the still-running goroutine's task context,
		// not just report it abandoned while it keeps executing in the
		// background.
		entry.cancel()

		if !atomic.CompareAndSwapInt32(&entry.recorded, 0, 1) {
			// The real execution already recorded its own outcome in the
			// tiny window before this Range call observed it.
			return true
		}
		nowNs := time.Now().UnixNano()
		e.cfg.Collector.Record(record.ExecutionRecord{
			StartNs:      entry.startNs,
			EndNs:        nowNs,
			Outcome:      task.Failure(&enginerr.CancellationError{IterationIdx: idx}),
			IterationIdx: idx,
		})
		remaining++
		return true
	})
	if remaining > 0 {
		atomic.AddInt64(&e.abandoned, int64(remaining))
		e.drainWarn.Do(func() {
			logger.Warn(fmt.Sprintf("force timeout exceeded, abandoned %d in-flight executions", remaining))
		})
	}
}

// Abandoned returns the number of in-flight executions that were still
// running when ForceTimeout elapsed and were converted to
// CancellationError failures.
func (e *Engine) Abandoned() int64 { return atomic.LoadInt64(&e.abandoned) }
