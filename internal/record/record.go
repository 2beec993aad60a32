// Package record defines the execution record shared between the task
// executor (which produces one per invocation) and the metrics collector
// (which consumes them).
package record

import "github.com/pcraw4d/loadgen/internal/task"

// ExecutionRecord is produced by exactly one task execution. Duration is
// EndNs - StartNs and is always >= 0. IterationIdx is assigned at dispatch
// time and increases monotonically from 0.
type ExecutionRecord struct {
	StartNs      int64
	EndNs        int64
	Outcome      task.Outcome
	IterationIdx uint64

	// ScheduledNs is the rate controller's release instant for this
	// iteration, in the same clock as StartNs/EndNs. Zero unless the caller
	// opted into coordinated-omission-aware latency (SPEC_FULL.md
	// supplement #3); when set, callers that want drift-aware latency use
	// EndNs-ScheduledNs instead of EndNs-StartNs.
	ScheduledNs int64
}

// DurationNs returns EndNs - StartNs.
func (r ExecutionRecord) DurationNs() int64 { return r.EndNs - r.StartNs }
