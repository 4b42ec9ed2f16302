package metrics

import (
	"go.uber.org/fx"

	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
)

// Module is an Fx module that provides PrometheusRecorder as a
// metrics.Recorder interface.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewPrometheusRecorder,
		fx.As(new(metrics.Recorder)),
	)),
)
