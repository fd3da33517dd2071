// Package metrics records how nebula-io invocations behave using Prometheus
// metrics.
//
// # Overview
//
// A CLI process is short lived, so nothing is scraped. Metrics live on a
// private registry and, when requested, are written once at exit in the text
// exposition format for node-exporter's textfile collector:
//
//	timer := metrics.NewTimer()
//	err := stage()
//	metrics.Default.ObserveStage("sink", "validated", timer.Stop())
//	...
//	_ = metrics.Default.WriteTextfile("/var/lib/node_exporter/nebula_io.prom")
//
// # Metric Types
//
// Counter: pipeline runs by outcome, Admin API requests by method and status
// Histogram: stage durations, Admin API request latency
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the nebula-io metrics on one registry.
type Collector struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec // kind, stage
	pipelineRuns    *prometheus.CounterVec   // kind, outcome
	requests        *prometheus.CounterVec   // method, code
	requestDuration *prometheus.HistogramVec // method
}

// Default is the process-wide collector.
var Default = NewCollector()

// NewCollector creates a collector on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nebula_io_pipeline_stage_duration_seconds",
				Help: "Duration of each configuration pipeline stage",
				Buckets: []float64{
					0.0001, // 100μs - in-memory merges
					0.001,  // 1ms - file reads
					0.01,   // 10ms - package inspection
					0.1,    // 100ms - registry fetch
					1,      // 1s - package download
					10,
				},
			},
			[]string{"kind", "stage"},
		),
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nebula_io_pipeline_runs_total",
				Help: "Configuration pipeline runs by outcome",
			},
			[]string{"kind", "outcome"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nebula_io_admin_requests_total",
				Help: "Admin API requests by method and HTTP status",
			},
			[]string{"method", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nebula_io_admin_request_duration_seconds",
				Help:    "Admin API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveStage records the duration of one pipeline stage.
func (c *Collector) ObserveStage(kind, stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(kind, stage).Observe(d.Seconds())
}

// RecordRun counts a finished pipeline. outcome is the final state or the
// error type that stopped it.
func (c *Collector) RecordRun(kind, outcome string) {
	if c == nil {
		return
	}
	c.pipelineRuns.WithLabelValues(kind, outcome).Inc()
}

// RecordRequest counts an Admin API request. code is 0 when no response arrived.
func (c *Collector) RecordRequest(method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	c.requests.WithLabelValues(method, label).Inc()
	c.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
