package graph

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsMiddleware records Prometheus metrics for every node invocation.
//
// Metrics, all namespaced "agentgraph":
//   - step_latency_ms (histogram): node execution duration in milliseconds.
//     Labels: node_id, status (success/error).
//   - node_errors_total (counter): failed node invocations. Labels: node_id.
//   - inflight_nodes (gauge): nodes currently executing across all runs.
//
// Attach with WithMiddleware and expose the registry over
// promhttp.HandlerFor for scraping.
type MetricsMiddleware[S any] struct {
	stepLatency *prometheus.HistogramVec
	nodeErrors  *prometheus.CounterVec
	inflight    prometheus.Gauge
}

// NewMetricsMiddleware creates and registers the node metrics with the given
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewMetricsMiddleware[S any](registry prometheus.Registerer) *MetricsMiddleware[S] {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &MetricsMiddleware[S]{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentgraph",
			Name:      "step_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),
		nodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "node_errors_total",
			Help:      "Failed node invocations",
		}, []string{"node_id"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentgraph",
			Name:      "inflight_nodes",
			Help:      "Nodes currently executing across all runs",
		}),
	}
}

// AroundRun records metrics around the node invocation
// (implements NodeMiddleware).
func (m *MetricsMiddleware[S]) AroundRun(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error) {
	m.inflight.Inc()
	start := time.Now()

	outState, outNext, err := next(ctx, state)

	latencyMs := float64(time.Since(start).Milliseconds())
	m.inflight.Dec()

	status := "success"
	if err != nil {
		status = "error"
		m.nodeErrors.WithLabelValues(nodeID).Inc()
	}
	m.stepLatency.WithLabelValues(nodeID, status).Observe(latencyMs)

	return outState, outNext, err
}
