package ws

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/internal/domain/transport"
)

var Module = fx.Module("ws",
	fx.Provide(
		func(logger *slog.Logger) *Hub {
			return NewHub(logger, WithSendBuffer(128))
		},
		fx.Annotate(
			func(h *Hub) transport.Broadcaster { return h },
			fx.As(new(transport.Broadcaster)),
		),
		NewHandler,
	),
	fx.Invoke(func(lc fx.Lifecycle, h *Hub) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown()
				return nil
			},
		})
	}),
)
