// Package config implements spec §6's YAML configuration surface
// (execution:/observability: sections), layered with a .env overlay and
// optional fsnotify-driven hot reload — in the style of the teacher's
// cmd/api/main.go godotenv.Load() call and its yaml-tagged Config struct
// family.
package config

import (
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pcraw4d/loadgen/internal/enginerr"
)

// ThreadPoolMode mirrors engine.ThreadPoolMode's string values; kept as an
// independent type here so this package has no dependency on internal/engine.
type ThreadPoolMode string

const (
	ThreadPoolVirtual  ThreadPoolMode = "virtual"
	ThreadPoolPlatform ThreadPoolMode = "platform"
	ThreadPoolAuto     ThreadPoolMode = "auto"
)

// ExecutionConfig is the YAML execution: section.
type ExecutionConfig struct {
	DrainTimeout           time.Duration  `yaml:"drainTimeout"`
	ForceTimeout           time.Duration  `yaml:"forceTimeout"`
	DefaultThreadPool      ThreadPoolMode `yaml:"defaultThreadPool"`
	PlatformThreadPoolSize int            `yaml:"platformThreadPoolSize"`
}

// ObservabilityConfig is the YAML observability: section.
type ObservabilityConfig struct {
	TracingEnabled    bool    `yaml:"tracingEnabled"`
	MetricsEnabled    bool    `yaml:"metricsEnabled"`
	StructuredLogging bool    `yaml:"structuredLogging"`
	OTLPEndpoint      string  `yaml:"otlpEndpoint"`
	TracingSampleRate float64 `yaml:"tracingSampleRate"`
	LogLevel          string  `yaml:"logLevel"`
}

// Config is the top-level YAML document (spec §6).
type Config struct {
	Execution     ExecutionConfig     `yaml:"execution"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Default returns a Config with every field at its documented default.
func Default() Config {
	return Config{
		Execution: ExecutionConfig{
			DrainTimeout:           5 * time.Second,
			ForceTimeout:           10 * time.Second,
			DefaultThreadPool:      ThreadPoolAuto,
			PlatformThreadPoolSize: -1,
		},
		Observability: ObservabilityConfig{
			TracingEnabled:    false,
			MetricsEnabled:    true,
			StructuredLogging: true,
			TracingSampleRate: 0.1,
			LogLevel:          "info",
		},
	}
}

// Load reads a YAML config file from path over Default(). Before reading
// it, Load calls godotenv.Load, which copies a .env file from the working
// directory into the process environment; a missing or unreadable .env is
// ignored. No Config field is read from the environment. An empty path
// returns Default() without touching .env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// Non-fatal: environment variables may already be set directly
		// (container/CI deployments commonly skip a .env file entirely).
		_ = err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, enginerr.NewValidationError("config_path", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, enginerr.NewValidationError("config_yaml", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Execution.DefaultThreadPool {
	case ThreadPoolVirtual, ThreadPoolPlatform, ThreadPoolAuto, "":
	default:
		return enginerr.NewValidationError("execution.defaultThreadPool", errUnknownPoolMode)
	}
	if c.Execution.PlatformThreadPoolSize == 0 {
		return enginerr.NewValidationError("execution.platformThreadPoolSize", errZeroPoolSize)
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return enginerr.NewValidationError("observability.tracingSampleRate", errUnitInterval)
	}
	return nil
}

// ResolvedPlatformPoolSize returns PlatformThreadPoolSize, substituting
// runtime.NumCPU() for the "-1 = auto" sentinel.
func (c Config) ResolvedPlatformPoolSize() int {
	if c.Execution.PlatformThreadPoolSize < 0 {
		return runtime.NumCPU()
	}
	return c.Execution.PlatformThreadPoolSize
}

type errMsg string

func (e errMsg) Error() string { return string(e) }

var (
	errUnknownPoolMode = errMsg("must be one of virtual, platform, auto")
	errZeroPoolSize    = errMsg("must be >= 1, or -1 for auto")
	errUnitInterval    = errMsg("must be within [0,1]")
)
