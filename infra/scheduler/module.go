package scheduler

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		func(logger *slog.Logger) *timerScheduler { return New(logger) },
		fx.Annotate(
			func(s *timerScheduler) Scheduler { return s },
			fx.As(new(Scheduler)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, s *timerScheduler) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				s.Shutdown()
				return nil
			},
		})
	}),
)
