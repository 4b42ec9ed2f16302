package scheduler

import (
	"context"

	"go.uber.org/fx"
)

// Module is an Fx module that provides the TrackingScheduler and ties it to
// the application lifecycle.
var Module = fx.Options(
	fx.Provide(NewTrackingScheduler),
	fx.Invoke(func(lc fx.Lifecycle, s *TrackingScheduler) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				s.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				s.Stop()
				return nil
			},
		})
	}),
)
