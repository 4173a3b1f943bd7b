package cmd

import (
	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/config"
	"github.com/typeclash/tournament-service/infra/scheduler"
	httpsrv "github.com/typeclash/tournament-service/infra/server/http"
	"github.com/typeclash/tournament-service/infra/ws"
	"github.com/typeclash/tournament-service/internal/adapter/pubsub"
	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/registry"
	"github.com/typeclash/tournament-service/internal/domain/runtime"
	"github.com/typeclash/tournament-service/internal/service"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
		),
		scheduler.Module,
		repository.Module,
		pubsub.Module,
		registry.Module,
		runtime.Module,
		service.Module,
		ws.Module,
		httpsrv.Module,
	)
}
