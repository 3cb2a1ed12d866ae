package metrics

import (
	"go.uber.org/fx"
)

// Module provides the no-op recorder and tracer. infrastructure/metrics replaces them
// with fx.Decorate when it is installed.
var Module = fx.Options(
	fx.Provide(NewNoOpMetricRecorder),
	fx.Provide(NewNoOpTracer),
)
