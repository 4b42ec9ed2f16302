package usecase

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
)

// Module is an Fx module that provides the application services as their port
// interfaces.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewDefaultBatchManager,
			fx.As(new(port.BatchManager)),
		),
		fx.Annotate(
			NewDefaultJobManager,
			fx.As(new(port.JobManager)),
		),
		fx.Annotate(
			NewDefaultReconciler,
			fx.As(new(port.Reconciler)),
		),
	),
)
