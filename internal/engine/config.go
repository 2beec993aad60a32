package engine

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pcraw4d/loadgen/internal/enginerr"
	"github.com/pcraw4d/loadgen/internal/loadpattern"
	"github.com/pcraw4d/loadgen/internal/metrics"
	"github.com/pcraw4d/loadgen/internal/observability"
	"github.com/pcraw4d/loadgen/internal/task"
)

// ThreadPoolMode mirrors the YAML config surface's defaultThreadPool enum
// (spec §6): virtual (unbounded-ish, IO-friendly), platform (bounded to N
// OS threads worth of goroutines), or auto (engine decides per task).
type ThreadPoolMode string

const (
	ThreadPoolVirtual  ThreadPoolMode = "virtual"
	ThreadPoolPlatform ThreadPoolMode = "platform"
	ThreadPoolAuto     ThreadPoolMode = "auto"
)

// Config builds one ExecutionEngine run. RunID is generated (uuid v4) if
// left empty.
type Config struct {
	Task    task.Task
	Pattern loadpattern.Pattern

	RunID       string
	TaskName    string
	PatternName string

	DrainTimeout time.Duration
	ForceTimeout time.Duration

	// DefaultThreadPool and PlatformThreadPoolSize mirror the YAML
	// config's execution: section. PlatformThreadPoolSize <= 0 means
	// "auto" (runtime.NumCPU()).
	DefaultThreadPool      ThreadPoolMode
	PlatformThreadPoolSize int
	VirtualPoolSize        int

	Collector *metrics.Collector
	Logger    *observability.Logger
	Tracer    trace.Tracer
}

func (c Config) withDefaults() Config {
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 5 * time.Second
	}
	if c.ForceTimeout <= 0 {
		c.ForceTimeout = 10 * time.Second
	}
	if c.DefaultThreadPool == "" {
		c.DefaultThreadPool = ThreadPoolAuto
	}
	if c.VirtualPoolSize <= 0 {
		c.VirtualPoolSize = 4096
	}
	if c.Logger == nil {
		c.Logger = observability.NewNop()
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer("loadgen.engine")
	}
	return c
}

func (c Config) validate() error {
	if c.Task == nil {
		return enginerr.NewValidationError("task", errRequired)
	}
	if c.Pattern == nil {
		return enginerr.NewValidationError("pattern", errRequired)
	}
	if c.Collector == nil {
		return enginerr.NewValidationError("collector", errRequired)
	}
	return nil
}

type errMsg string

func (e errMsg) Error() string { return string(e) }

var errRequired = errMsg("must not be nil")
