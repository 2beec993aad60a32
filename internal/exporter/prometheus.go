package exporter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pcraw4d/loadgen/internal/metrics"
)

// PrometheusExporter publishes the latest snapshot as a set of gauges on
// its own registry, scraped via Handler(). Built with an explicit
// constructor and an owned prometheus.Registry — no promauto package
// globals, per spec §9.
type PrometheusExporter struct {
	registry *prometheus.Registry

	total       prometheus.Gauge
	success     prometheus.Gauge
	failure     prometheus.Gauge
	successRate prometheus.Gauge
	responseTPS prometheus.Gauge
	percentiles *prometheus.GaugeVec
}

// NewPrometheusExporter registers its gauges on a fresh registry.
func NewPrometheusExporter() *PrometheusExporter {
	registry := prometheus.NewRegistry()
	e := &PrometheusExporter{
		registry: registry,
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_executions_total",
			Help: "Total executions observed in the most recent snapshot.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_executions_success",
			Help: "Successful executions observed in the most recent snapshot.",
		}),
		failure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_executions_failure",
			Help: "Failed executions observed in the most recent snapshot.",
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_success_rate_percent",
			Help: "Success rate percentage in the most recent snapshot.",
		}),
		responseTPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_response_tps",
			Help: "Realized total throughput in the most recent snapshot.",
		}),
		percentiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadgen_success_latency_ns",
			Help: "Success latency at a given percentile, in nanoseconds.",
		}, []string{"percentile"}),
	}
	registry.MustRegister(e.total, e.success, e.failure, e.successRate, e.responseTPS, e.percentiles)
	return e
}

// Handler returns an http.Handler suitable for mounting on a gorilla/mux
// router at /metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *PrometheusExporter) Export(ctx context.Context, title string, snap metrics.Snapshot) error {
	e.total.Set(float64(snap.TotalCount))
	e.success.Set(float64(snap.SuccessCount))
	e.failure.Set(float64(snap.FailureCount))
	e.successRate.Set(snap.SuccessRate())
	e.responseTPS.Set(snap.ResponseTPS())
	for p, ns := range snap.SuccessPercentileNs {
		e.percentiles.WithLabelValues(fmt.Sprintf("p%g", p)).Set(float64(ns))
	}
	return nil
}

func (e *PrometheusExporter) Close() error { return nil }
