// Package metrics provides the Prometheus and OpenTelemetry implementations of the
// instrumentation ports in core/metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tigerroll/soundings/pkg/archive/core/config"
	metrics "github.com/tigerroll/soundings/pkg/archive/core/metrics"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadBytes      *prometheus.CounterVec
	purgedTotal       prometheus.Counter
}

// NewPrometheusRecorder creates a recorder with its own registry. Metric names are
// prefixed with the configured namespace.
func NewPrometheusRecorder(cfg *config.ObservabilityConfig) *PrometheusRecorder {
	namespace := "soundings"
	if cfg != nil && cfg.MetricsNamespace != "" {
		namespace = cfg.MetricsNamespace
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total archive operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of archive operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		payloadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payload_bytes_total",
			Help:      "Compressed payload bytes moved to or from the payload store.",
		}, []string{"direction"}), // upload, download
		purgedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_files_total",
			Help:      "Files removed by retention sweeps.",
		}),
	}

	registry.MustRegister(r.operationsTotal)
	registry.MustRegister(r.operationDuration)
	registry.MustRegister(r.payloadBytes)
	registry.MustRegister(r.purgedTotal)

	logger.Debugf("Metrics: Prometheus recorder created with namespace '%s'.", namespace)
	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordOperation records one call of op.
func (r *PrometheusRecorder) RecordOperation(ctx context.Context, op string, outcome string, duration time.Duration) {
	r.operationsTotal.WithLabelValues(op, outcome).Inc()
	r.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordPayloadBytes records payload bytes in one direction.
func (r *PrometheusRecorder) RecordPayloadBytes(ctx context.Context, direction string, n int64) {
	if n <= 0 {
		return
	}
	r.payloadBytes.WithLabelValues(direction).Add(float64(n))
}

// RecordPurged records files removed by a retention sweep.
func (r *PrometheusRecorder) RecordPurged(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	r.purgedTotal.Add(float64(n))
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
