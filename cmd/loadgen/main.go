// Command loadgen is the CLI surface for the engine described by spec §6:
// it parses --mode/--tps/--duration/... flags into a loadpattern.Pattern,
// builds an engine.Engine around one of the reference examples/tasks
// workloads, runs it to completion, and prints a summary — the spirit of
// the teacher's cmd/load-testing/main.go ad hoc runner, generalized from a
// single hand-rolled HTTP benchmark loop into a driver over the engine's
// LoadPattern/Engine abstractions. Engine logic itself lives entirely in
// internal/; this file is flag parsing and wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pcraw4d/loadgen/examples/tasks"
	"github.com/pcraw4d/loadgen/internal/adaptive"
	"github.com/pcraw4d/loadgen/internal/config"
	"github.com/pcraw4d/loadgen/internal/engine"
	"github.com/pcraw4d/loadgen/internal/exporter"
	"github.com/pcraw4d/loadgen/internal/loadpattern"
	"github.com/pcraw4d/loadgen/internal/metrics"
	"github.com/pcraw4d/loadgen/internal/observability"
	"github.com/pcraw4d/loadgen/internal/pipeline"
	"github.com/pcraw4d/loadgen/internal/task"
)

func main() {
	var (
		mode         = flag.String("mode", "static", "static|ramp|ramp-sustain|step|sine|spike|adaptive")
		tps          = flag.Float64("tps", 50, "target rate (static; peak rate for ramp/ramp-sustain)")
		duration     = flag.String("duration", "30s", "total run duration (integer+{ms,s,m,h}, bare integer = seconds)")
		rampDuration = flag.String("ramp-duration", "10s", "ramp phase duration (ramp/ramp-sustain)")
		steps        = flag.String("steps", "", "rate:duration,rate:duration,... (step mode)")
		meanRate     = flag.Float64("mean-rate", 50, "sine mode mean rate")
		amplitude    = flag.Float64("amplitude", 25, "sine mode amplitude")
		period       = flag.String("period", "10s", "sine mode period")
		baseRate     = flag.Float64("base-rate", 10, "spike mode base rate")
		spikeRate    = flag.Float64("spike-rate", 100, "spike mode spike rate")
		spikeInt     = flag.String("spike-interval", "1s", "spike mode interval")
		spikeDur     = flag.String("spike-duration", "200ms", "spike mode spike-duration within each interval")

		adaptiveInitialTPS      = flag.Float64("adaptive-initial-tps", 10, "adaptive mode starting rate")
		adaptiveRampIncrement   = flag.Float64("adaptive-ramp-increment", 5, "adaptive mode per-interval rate increase while healthy")
		adaptiveRampDecrement   = flag.Float64("adaptive-ramp-decrement", 10, "adaptive mode per-interval rate decrease under error pressure")
		adaptiveRampInterval    = flag.String("adaptive-ramp-interval", "5s", "adaptive mode control-loop tick interval")
		adaptiveMaxTPS          = flag.Float64("adaptive-max-tps", 0, "adaptive mode rate ceiling; 0 = unbounded")
		adaptiveMinTPS          = flag.Float64("adaptive-min-tps", 1, "adaptive mode rate floor")
		adaptiveSustainDuration = flag.String("adaptive-sustain-duration", "30s", "adaptive mode duration STABLE must hold before the run terminates")
		adaptiveStableIntervals = flag.Int("adaptive-stable-intervals", 3, "adaptive mode consecutive Hold ticks required before entering STABLE")
		adaptiveErrorThreshold  = flag.Float64("adaptive-error-threshold", 0.05, "adaptive mode error-rate fraction above which the controller ramps down")

		configPath = flag.String("config", "", "optional YAML config file (execution:/observability: sections)")
		target     = flag.String("url", "", "target URL for the built-in HTTP reference task; empty runs the no-op task")
		listenAddr = flag.String("listen", ":9090", "address serving /metrics and /healthz while the run is in progress")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, logFormat(cfg))
	defer logger.Sync()

	collector := metrics.NewCollector(metrics.Config{}, time.Now())

	pf := patternFlags{
		mode: *mode, tps: *tps, duration: *duration, rampDuration: *rampDuration, steps: *steps,
		meanRate: *meanRate, amplitude: *amplitude, period: *period,
		baseRate: *baseRate, spikeRate: *spikeRate, spikeInterval: *spikeInt, spikeDuration: *spikeDur,
		adaptive: adaptiveFlags{
			initialTPS: *adaptiveInitialTPS, rampIncrement: *adaptiveRampIncrement, rampDecrement: *adaptiveRampDecrement,
			rampInterval: *adaptiveRampInterval, maxTPS: *adaptiveMaxTPS, minTPS: *adaptiveMinTPS,
			sustainDuration: *adaptiveSustainDuration, stableIntervals: *adaptiveStableIntervals, errorThreshold: *adaptiveErrorThreshold,
		},
	}
	pattern, err := buildPattern(pf, collector, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pattern error:", err)
		os.Exit(1)
	}
	if adaptivePattern, ok := pattern.(*adaptive.Pattern); ok {
		adaptiveCtx, cancelAdaptive := context.WithCancel(context.Background())
		defer cancelAdaptive()
		go adaptivePattern.Run(adaptiveCtx)
	}

	wl := buildTask(*target)

	promExporter := exporter.NewPrometheusExporter()
	exporters := []exporter.Exporter{
		exporter.NewConsoleExporter(logger),
		promExporter,
	}

	pl := pipeline.New(collector, exporters, 5*time.Second, logger)

	eng, err := engine.Build(engine.Config{
		Task:                   wl,
		Pattern:                pattern,
		TaskName:               fmt.Sprintf("%T", wl),
		PatternName:            *mode,
		DrainTimeout:           cfg.Execution.DrainTimeout,
		ForceTimeout:           cfg.Execution.ForceTimeout,
		DefaultThreadPool:      engine.ThreadPoolMode(cfg.Execution.DefaultThreadPool),
		PlatformThreadPoolSize: cfg.ResolvedPlatformPoolSize(),
		Collector:              collector,
		Logger:                 logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine build error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := startHTTPServer(*listenAddr, promExporter, logger)
	defer srv.Close()

	pipelineCtx, cancelPipeline := context.WithCancel(ctx)
	go pl.Run(pipelineCtx)

	runErr := eng.Run(ctx)
	cancelPipeline()
	pl.Close()
	final := pl.PublishFinal(context.Background())
	pl.CloseExporters()

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "run error:", runErr)
		os.Exit(1)
	}

	printSummary(final, eng.RunID(), eng.Abandoned())
}

// adaptiveFlags holds the CLI surface for the "adaptive" mode's
// AdaptiveLoadPattern controller (spec §4.6).
type adaptiveFlags struct {
	initialTPS      float64
	rampIncrement   float64
	rampDecrement   float64
	rampInterval    string
	maxTPS          float64
	minTPS          float64
	sustainDuration string
	stableIntervals int
	errorThreshold  float64
}

// patternFlags bundles the --mode flag surface (spec §6) so buildPattern
// takes one argument instead of a long positional list.
type patternFlags struct {
	mode          string
	tps           float64
	duration      string
	rampDuration  string
	steps         string
	meanRate      float64
	amplitude     float64
	period        string
	baseRate      float64
	spikeRate     float64
	spikeInterval string
	spikeDuration string
	adaptive      adaptiveFlags
}

// buildPattern translates the CLI flag surface (spec §6) into a concrete
// loadpattern.Pattern. collector and logger are only consulted by the
// "adaptive" case, which needs a live MetricsProvider to close its control
// loop over.
func buildPattern(f patternFlags, collector *metrics.Collector, logger *observability.Logger) (loadpattern.Pattern, error) {
	mode, tps := f.mode, f.tps
	durationStr, rampDurationStr, stepsStr := f.duration, f.rampDuration, f.steps
	meanRate, amplitude, periodStr := f.meanRate, f.amplitude, f.period
	baseRate, spikeRate, spikeIntervalStr, spikeDurationStr := f.baseRate, f.spikeRate, f.spikeInterval, f.spikeDuration

	if mode == "adaptive" {
		return buildAdaptivePattern(f.adaptive, collector, logger)
	}

	dur, err := parseDuration(durationStr)
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}

	switch mode {
	case "static":
		return loadpattern.NewStatic(tps, dur)
	case "ramp":
		return loadpattern.NewRampUp(tps, dur)
	case "ramp-sustain":
		ramp, err := parseDuration(rampDurationStr)
		if err != nil {
			return nil, fmt.Errorf("ramp-duration: %w", err)
		}
		sustain := dur - ramp
		if sustain < 0 {
			sustain = 0
		}
		return loadpattern.NewRampUpToMax(tps, ramp, sustain)
	case "step":
		stages, err := parseSteps(stepsStr)
		if err != nil {
			return nil, fmt.Errorf("steps: %w", err)
		}
		return loadpattern.NewStep(stages)
	case "sine":
		p, err := parseDuration(periodStr)
		if err != nil {
			return nil, fmt.Errorf("period: %w", err)
		}
		return loadpattern.NewSineWave(meanRate, amplitude, p, dur)
	case "spike":
		interval, err := parseDuration(spikeIntervalStr)
		if err != nil {
			return nil, fmt.Errorf("spike-interval: %w", err)
		}
		spikeDur, err := parseDuration(spikeDurationStr)
		if err != nil {
			return nil, fmt.Errorf("spike-duration: %w", err)
		}
		return loadpattern.NewSpike(baseRate, spikeRate, interval, spikeDur, dur)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// buildAdaptivePattern constructs the AdaptiveLoadPattern controller (spec
// §4.6) around the engine's own metrics.Collector, which already satisfies
// adaptive.MetricsProvider. Its closed-loop feedback has nothing to
// throttle against without a live collector, so this case can't be reached
// through the generic parseDuration-first path the other modes share.
func buildAdaptivePattern(f adaptiveFlags, collector *metrics.Collector, logger *observability.Logger) (loadpattern.Pattern, error) {
	rampInterval, err := parseDuration(f.rampInterval)
	if err != nil {
		return nil, fmt.Errorf("adaptive-ramp-interval: %w", err)
	}
	sustainDuration, err := parseDuration(f.sustainDuration)
	if err != nil {
		return nil, fmt.Errorf("adaptive-sustain-duration: %w", err)
	}
	maxTPS := f.maxTPS
	if maxTPS <= 0 {
		maxTPS = math.Inf(1)
	}
	return adaptive.New(adaptive.Config{
		InitialTPS:              f.initialTPS,
		RampIncrement:           f.rampIncrement,
		RampDecrement:           f.rampDecrement,
		RampInterval:            rampInterval,
		MaxTPS:                  maxTPS,
		MinTPS:                  f.minTPS,
		SustainDuration:         sustainDuration,
		StableIntervalsRequired: f.stableIntervals,
		ErrorThreshold:          f.errorThreshold,
		MetricsProvider:         collector,
		Logger:                  logger,
	})
}

// parseSteps parses "rate:duration,rate:duration,..." into StepStages.
func parseSteps(s string) ([]loadpattern.StepStage, error) {
	if s == "" {
		return nil, fmt.Errorf("must not be empty in step mode")
	}
	parts := strings.Split(s, ",")
	stages := make([]loadpattern.StepStage, 0, len(parts))
	for _, part := range parts {
		rateDur := strings.SplitN(part, ":", 2)
		if len(rateDur) != 2 {
			return nil, fmt.Errorf("malformed stage %q, want rate:duration", part)
		}
		rate, err := strconv.ParseFloat(rateDur[0], 64)
		if err != nil {
			return nil, fmt.Errorf("stage %q: bad rate: %w", part, err)
		}
		d, err := parseDuration(rateDur[1])
		if err != nil {
			return nil, fmt.Errorf("stage %q: bad duration: %w", part, err)
		}
		stages = append(stages, loadpattern.StepStage{Rate: rate, Duration: d})
	}
	return stages, nil
}

// parseDuration parses an integer with an optional {ms,s,m,h} suffix; a
// bare integer is interpreted as seconds, per spec §6.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	for _, suffix := range []string{"ms", "s", "m", "h"} {
		if strings.HasSuffix(s, suffix) {
			numeric := strings.TrimSuffix(s, suffix)
			n, err := strconv.ParseInt(numeric, 10, 64)
			if err != nil {
				return 0, err
			}
			switch suffix {
			case "ms":
				return time.Duration(n) * time.Millisecond, nil
			case "s":
				return time.Duration(n) * time.Second, nil
			case "m":
				return time.Duration(n) * time.Minute, nil
			case "h":
				return time.Duration(n) * time.Hour, nil
			}
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

// buildTask returns the HTTP reference task when a target URL is supplied,
// otherwise the no-op baseline.
func buildTask(url string) task.Task {
	if url == "" {
		return tasks.NoopTask{}
	}
	return tasks.NewHTTPTask(http.MethodGet, url, nil, http.StatusOK)
}

func logFormat(cfg config.Config) string {
	if cfg.Observability.StructuredLogging {
		return "json"
	}
	return "console"
}

func startHTTPServer(addr string, prom *exporter.PrometheusExporter, logger *observability.Logger) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", prom.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics http server stopped", zap.Error(err))
		}
	}()
	return srv
}

func printSummary(snap metrics.Snapshot, runID string, abandoned int64) {
	p := message.NewPrinter(language.English)
	fmt.Println()
	fmt.Println("loadgen run", runID, "complete")
	p.Printf("  total:        %d\n", snap.TotalCount)
	p.Printf("  success:      %d (%.2f%%)\n", snap.SuccessCount, snap.SuccessRate())
	p.Printf("  failure:      %d\n", snap.FailureCount)
	p.Printf("  response tps: %.1f\n", snap.ResponseTPS())
	p.Printf("  elapsed ms:   %d\n", snap.ElapsedMs)
	if abandoned > 0 {
		p.Printf("  abandoned:    %d (force timeout exceeded)\n", abandoned)
	}
	for _, pct := range snap.ConfiguredPercentiles {
		if ns, ok := snap.SuccessPercentileNs[pct]; ok {
			p.Printf("  p%-5g success: %v\n", pct, time.Duration(ns))
		}
	}
	fmt.Printf("  capacity bottleneck: %s\n", snap.Capacity.Bottleneck)
}
