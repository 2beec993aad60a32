// Package runctx carries run-scoped, display-only metadata alongside a
// context.Context. Per spec, run-id and friends are contextual metadata
// only — never part of error identity.
package runctx

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// RunContext is opaque tagging metadata attached to one engine run. Fields
// are consulted by exporters and loggers only; engine control flow never
// branches on them.
type RunContext struct {
	RunID       string
	StartTime   time.Time
	EndTime     time.Time // zero until the run completes
	TaskName    string
	PatternName string
	ConfigKV    map[string]string
	SystemInfo  map[string]string
}

// Empty returns an unpopulated RunContext, useful in tests that don't care
// about tagging metadata.
func Empty() RunContext {
	return RunContext{ConfigKV: map[string]string{}, SystemInfo: map[string]string{}}
}

// WithRunContext attaches rc to ctx, retrievable via FromContext.
func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext retrieves the RunContext attached by WithRunContext, or a
// zero-value Empty() if none was attached.
func FromContext(ctx context.Context) RunContext {
	if rc, ok := ctx.Value(ctxKey{}).(RunContext); ok {
		return rc
	}
	return Empty()
}

// SpanContext extracts the trace.SpanContext carried by ctx's active span,
// if any. Exporters use this to correlate emitted metrics with traces.
func SpanContext(ctx context.Context) trace.SpanContext {
	return trace.SpanContextFromContext(ctx)
}
