package exporter

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pcraw4d/loadgen/internal/metrics"
	"github.com/pcraw4d/loadgen/internal/observability"
)

// ConsoleExporter logs a formatted summary of each snapshot through the
// engine's structured logger. Numbers are formatted with
// golang.org/x/text/message so large counts read with thousands
// separators, matching the teacher's operator-facing CLI output style.
type ConsoleExporter struct {
	logger  *observability.Logger
	printer *message.Printer
}

// NewConsoleExporter builds a ConsoleExporter logging through logger.
func NewConsoleExporter(logger *observability.Logger) *ConsoleExporter {
	return &ConsoleExporter{
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

func (e *ConsoleExporter) Export(ctx context.Context, title string, snap metrics.Snapshot) error {
	e.logger.Info(e.printer.Sprintf("%s: total=%d success=%d failure=%d success_rate=%.2f%% tps=%.1f",
		title, snap.TotalCount, snap.SuccessCount, snap.FailureCount, snap.SuccessRate(), snap.ResponseTPS()),
		zap.Int64("elapsed_ms", snap.ElapsedMs),
		zap.Any("success_percentiles_ns", snap.SuccessPercentileNs),
		zap.String("bottleneck", string(snap.Capacity.Bottleneck)),
	)
	return nil
}

func (e *ConsoleExporter) Close() error { return nil }
