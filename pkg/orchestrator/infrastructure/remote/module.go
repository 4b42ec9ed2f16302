package remote

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
)

// Module is an Fx module that provides the HTTP Client as a
// port.WorkflowClient interface.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewClient,
		fx.As(new(port.WorkflowClient)),
	)),
)
