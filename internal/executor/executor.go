// Package executor implements spec §4.3: wrapping a single task invocation,
// capturing start/end timestamps, and isolating panics as Failure outcomes
// so a misbehaving task can never crash the engine.
package executor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/pcraw4d/loadgen/internal/record"
	"github.com/pcraw4d/loadgen/internal/runctx"
	"github.com/pcraw4d/loadgen/internal/task"
)

// Clock abstracts the monotonic nanosecond source, injectable for tests.
type Clock func() int64

// TaskExecutor wraps one task instance. ExecuteWithMetrics is safe for
// concurrent use as long as the wrapped task's Execute is.
type TaskExecutor struct {
	task   task.Task
	tracer trace.Tracer
	now    Clock
}

// New builds a TaskExecutor for t, tracing spans via tracer.
func New(t task.Task, tracer trace.Tracer, now Clock) *TaskExecutor {
	return &TaskExecutor{task: t, tracer: tracer, now: now}
}

// ExecuteWithMetrics runs one iteration of the wrapped task and returns its
// ExecutionRecord. It never panics: a panicking Execute is recovered and
// converted to a Failure outcome. scheduledNs is the rate controller's
// release instant for this iteration (0 if the caller doesn't track it).
func (e *TaskExecutor) ExecuteWithMetrics(ctx context.Context, iterationIdx uint64, runID string, scheduledNs int64) record.ExecutionRecord {
	ctx, span := e.tracer.Start(ctx, "loadgen.task.execute")
	defer span.End()
	ctx = runctx.WithRunContext(ctx, withIteration(runctx.FromContext(ctx), runID))

	startNs := e.now()
	outcome := e.runSafely(ctx, iterationIdx)
	endNs := e.now()

	return record.ExecutionRecord{
		StartNs:      startNs,
		EndNs:        endNs,
		Outcome:      outcome,
		IterationIdx: iterationIdx,
		ScheduledNs:  scheduledNs,
	}
}

// runSafely calls the wrapped task's Execute, converting a panic into a
// Failure outcome rather than letting it propagate.
func (e *TaskExecutor) runSafely(ctx context.Context, iterationIdx uint64) (outcome task.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = task.Failure(fmt.Errorf("task panicked: %v", r))
		}
	}()
	return e.task.Execute(ctx, iterationIdx)
}

func withIteration(rc runctx.RunContext, runID string) runctx.RunContext {
	if rc.RunID == "" {
		rc.RunID = runID
	}
	return rc
}
