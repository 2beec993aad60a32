package engine

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runState is the engine run state named in spec §4: run_id, start_wall,
// start_monotonic, an atomic increment-only exec_count, and an atomic
// stopped flag.
type runState struct {
	runID          string
	startWall      time.Time
	startMonotonic time.Time

	execCount uint64 // atomic
	stopped   int32  // atomic bool
}

func newRunState(runID string) *runState {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &runState{runID: runID}
}

func (s *runState) start(now time.Time) {
	s.startWall = now
	s.startMonotonic = now
}

func (s *runState) nextIterationIdx() uint64 {
	return atomic.AddUint64(&s.execCount, 1) - 1
}

func (s *runState) ExecCount() uint64 {
	return atomic.LoadUint64(&s.execCount)
}

func (s *runState) Stop() {
	atomic.StoreInt32(&s.stopped, 1)
}

func (s *runState) Stopped() bool {
	return atomic.LoadInt32(&s.stopped) != 0
}

func (s *runState) elapsed(now time.Time) time.Duration {
	return now.Sub(s.startMonotonic)
}
