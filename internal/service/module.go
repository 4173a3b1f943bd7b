package service

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/config"
)

var Module = fx.Module("service",
	fx.Provide(
		NewDispatcher,
		func(cfg *config.Config, logger *slog.Logger) *IdentityResolver {
			return NewIdentityResolver(cfg.Noauth.Secret, logger)
		},
	),
)
