package registry

import (
	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/internal/domain/runtime"
)

var Module = fx.Module("registry",
	fx.Provide(
		NewRuntimeRegistry,
		NewSessionRegistry,
		fx.Annotate(
			func(r *RuntimeRegistry) runtime.Evictor { return r },
			fx.As(new(runtime.Evictor)),
		),
		fx.Annotate(
			func(r *SessionRegistry) runtime.SessionSink { return r },
			fx.As(new(runtime.SessionSink)),
		),
	),
)
