package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/core/config"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	metrics "github.com/tigerroll/soundings/pkg/archive/core/metrics"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// TracerProviderParams are the Fx dependencies of provideTracerProvider.
type TracerProviderParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Cfg       *config.ObservabilityConfig
}

// provideTracerProvider builds the tracer provider, installs it as the global provider
// and flushes it when the application stops.
func provideTracerProvider(p TracerProviderParams) (*sdktrace.TracerProvider, error) {
	tp, err := NewTracerProvider(context.Background(), p.Cfg.Tracing)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debugf("Tracing: shutting down tracer provider.")
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

// Module replaces the no-op recorder and tracer of core/metrics with the Prometheus and
// OpenTelemetry implementations and decorates the archive index with both.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(func(r *PrometheusRecorder) *prometheus.Registry { return r.GetRegistry() }),
	fx.Provide(provideTracerProvider),
	fx.Decorate(func(_ metrics.MetricRecorder, r *PrometheusRecorder) metrics.MetricRecorder {
		return r
	}),
	fx.Decorate(func(_ metrics.Tracer, tp *sdktrace.TracerProvider) metrics.Tracer {
		return NewOpenTelemetryTracer(tp)
	}),
	fx.Decorate(func(idx repository.ArchiveIndex, r *PrometheusRecorder, tp *sdktrace.TracerProvider) repository.ArchiveIndex {
		return NewInstrumentedIndex(idx, r, NewOpenTelemetryTracer(tp))
	}),
)
