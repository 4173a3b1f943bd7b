package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/internal/domain/runtime"
)

var Module = fx.Module("pubsub",
	fx.Provide(
		NewPublisher,
		NewEventDispatcher,
		fx.Annotate(
			func(d EventDispatcher) runtime.EventPublisher { return d },
			fx.As(new(runtime.EventPublisher)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, pub message.Publisher) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return pub.Close()
			},
		})
	}),
)
