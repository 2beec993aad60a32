package engine

import (
	"runtime"

	"github.com/pcraw4d/loadgen/internal/task"
)

// workerPool is a counting semaphore bounding in-flight task executions.
// IO-strategy tasks (or "virtual" thread pool mode) get a large pool since
// goroutines blocked on I/O are cheap; CPU-strategy tasks (or "platform"
// mode) are capped near runtime.NumCPU() so CPU-bound work doesn't
// oversubscribe the host.
type workerPool struct {
	sem chan struct{}
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = 1
	}
	return &workerPool{sem: make(chan struct{}, size)}
}

// acquire blocks until a slot is free or done is closed, returning false
// in the latter case.
func (p *workerPool) acquire(done <-chan struct{}) bool {
	select {
	case p.sem <- struct{}{}:
		return true
	case <-done:
		return false
	}
}

func (p *workerPool) release() {
	<-p.sem
}

// poolSizeFor resolves the effective pool size for a task's thread
// strategy against the engine's configured pool mode, per spec §9's
// replacement for the source's reflection-based VirtualThreads/
// PlatformThreads annotations.
func poolSizeFor(strategy task.ThreadStrategy, cfg Config) int {
	mode := cfg.DefaultThreadPool
	if strategy == task.CPU {
		mode = ThreadPoolPlatform
	} else if strategy == task.IO {
		mode = ThreadPoolVirtual
	}

	switch mode {
	case ThreadPoolPlatform:
		if cfg.PlatformThreadPoolSize > 0 {
			return cfg.PlatformThreadPoolSize
		}
		return runtime.NumCPU()
	case ThreadPoolVirtual:
		return cfg.VirtualPoolSize
	default:
		return cfg.VirtualPoolSize
	}
}
