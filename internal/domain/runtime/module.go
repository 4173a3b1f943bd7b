package runtime

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/config"
	"github.com/typeclash/tournament-service/infra/scheduler"
	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/debounce"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/transport"
)

// FactoryParams collects the shared collaborators every new room borrows.
type FactoryParams struct {
	fx.In

	Logger      *slog.Logger
	Config      *config.Config
	Repo        repository.Repository
	Broadcaster transport.Broadcaster
	Scheduler   scheduler.Scheduler
	Sessions    SessionSink
	Evictor     Evictor
	Publisher   EventPublisher `optional:"true"`
}

var Module = fx.Module("runtime",
	fx.Provide(
		func(p FactoryParams) Factory {
			deps := Deps{
				Logger:      p.Logger,
				Repo:        p.Repo,
				Broadcaster: p.Broadcaster,
				Scheduler:   p.Scheduler,
				Sessions:    p.Sessions,
				Evictor:     p.Evictor,
				Publisher:   p.Publisher,
				Config: Config{
					JoinGrace:         p.Config.Tournament.JoinGrace,
					MatchDuration:     p.Config.Tournament.MatchDuration,
					InactivityTimeout: p.Config.Tournament.InactivityTimeout,
					EvictAfter:        p.Config.Tournament.EvictAfter,
					Ingest: debounce.Config{
						QuietPeriod: p.Config.Debounce.Ingest.Quiet,
						MaxStack:    p.Config.Debounce.Ingest.MaxStack,
						MaxWait:     p.Config.Debounce.Ingest.MaxWait,
					},
					Fanout: debounce.Config{
						QuietPeriod: p.Config.Debounce.Fanout.Quiet,
						MaxStack:    p.Config.Debounce.Fanout.MaxStack,
						MaxWait:     p.Config.Debounce.Fanout.MaxWait,
					},
				},
			}
			return func(meta model.TournamentMeta) *Runtime {
				return New(meta, deps)
			}
		},
	),
)
