package httpsrv

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"github.com/typeclash/tournament-service/config"
)

var Module = fx.Module("http",
	fx.Provide(
		NewAPI,
		NewRouter,
		func(cfg *config.Config, router chi.Router) *http.Server {
			return &http.Server{
				Addr:    cfg.HTTP.Addr,
				Handler: router,
			}
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, srv *http.Server, logger *slog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					logger.Info("http server listening", "addr", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("http server failed", "error", err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
