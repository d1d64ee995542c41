package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics collects engine execution metrics for production
// monitoring:
//
//   - workflow_runs_total{status}: completed/failed run counts
//   - workflow_step_latency_ms{node_id,status}: node execution duration
//   - workflow_inflight_nodes: currently executing nodes (fan-out aware)
//
// All metrics are updated by the engine during Run; register the struct's
// collectors on your own registry via NewPrometheusMetrics.
type PrometheusMetrics struct {
	runsTotal     *prometheus.CounterVec
	stepLatencyMS *prometheus.HistogramVec
	inflightNodes prometheus.Gauge
}

// NewPrometheusMetrics creates engine metrics registered on the given
// registry. Pass prometheus.DefaultRegisterer to use the global registry.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_runs_total",
				Help: "Total workflow runs by terminal status.",
			},
			[]string{"status"},
		),
		stepLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_step_latency_ms",
				Help:    "Node execution latency in milliseconds.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"node_id", "status"},
		),
		inflightNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "workflow_inflight_nodes",
				Help: "Number of nodes currently executing.",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(pm.runsTotal, pm.stepLatencyMS, pm.inflightNodes)
	}

	return pm
}

// RecordRun counts a completed run with the given terminal status
// ("completed" or "failed").
func (pm *PrometheusMetrics) RecordRun(status string) {
	if pm == nil {
		return
	}
	pm.runsTotal.WithLabelValues(status).Inc()
}

// RecordStepLatency observes one node execution.
func (pm *PrometheusMetrics) RecordStepLatency(nodeID string, latency time.Duration, status string) {
	if pm == nil {
		return
	}
	pm.stepLatencyMS.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// NodeStarted marks a node as in flight.
func (pm *PrometheusMetrics) NodeStarted() {
	if pm == nil {
		return
	}
	pm.inflightNodes.Inc()
}

// NodeFinished marks a node as no longer in flight.
func (pm *PrometheusMetrics) NodeFinished() {
	if pm == nil {
		return
	}
	pm.inflightNodes.Dec()
}
