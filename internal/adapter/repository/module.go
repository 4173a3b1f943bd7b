package repository

import (
	"log/slog"

	"go.uber.org/fx"
)

var Module = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			func(logger *slog.Logger) *InMemory { return NewInMemory(logger) },
			fx.As(new(Repository)),
		),
	),
	fx.Decorate(
		fx.Annotate(
			func(next Repository, logger *slog.Logger) *Breaker { return NewBreaker(next, logger) },
			fx.As(new(Repository)),
		),
	),
)
