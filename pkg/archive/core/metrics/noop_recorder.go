package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder is a MetricRecorder that does nothing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordOperation(ctx context.Context, op string, outcome string, duration time.Duration) {
}
func (r *NoOpMetricRecorder) RecordPayloadBytes(ctx context.Context, direction string, n int64) {}
func (r *NoOpMetricRecorder) RecordPurged(ctx context.Context, n int)                           {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is a Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartSpan(ctx context.Context, name string, attributes map[string]interface{}) (context.Context, func()) {
	return ctx, func() {}
}
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
