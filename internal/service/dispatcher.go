package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/registry"
	"github.com/typeclash/tournament-service/internal/domain/runtime"
	"github.com/typeclash/tournament-service/internal/domain/transport"
)

// Dispatcher routes a fresh socket to its tournament's runtime, creating the
// runtime on first connect. The repository load and runtime construction are
// collapsed across racing sockets with singleflight, so one cold tournament
// id costs exactly one lookup.
type Dispatcher struct {
	logger   *slog.Logger
	repo     repository.Repository
	runtimes *registry.RuntimeRegistry
	factory  runtime.Factory
	group    singleflight.Group
}

func NewDispatcher(
	logger *slog.Logger,
	repo repository.Repository,
	runtimes *registry.RuntimeRegistry,
	factory runtime.Factory,
) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		repo:     repo,
		runtimes: runtimes,
		factory:  factory,
	}
}

// Dispatch resolves the runtime for the handshake's tournament and hands the
// socket over. Rejections are emitted on the socket before it is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, socket transport.Socket, h Handshake, noauthEcho string) error {
	rt, err := d.resolve(ctx, h.TournamentID)
	if err != nil {
		var failure model.Failure
		switch {
		case errors.As(err, &failure):
			socket.Emit("join:failure", failure)
		case errors.Is(err, repository.ErrNotFound):
			d.logger.Warn("connect to unknown tournament", "tournament_id", h.TournamentID)
		default:
			d.logger.Error("tournament lookup failed", "tournament_id", h.TournamentID, "error", err)
		}
		socket.Close()
		return err
	}

	return rt.Connect(socket, h.Spectator, noauthEcho)
}

func (d *Dispatcher) resolve(ctx context.Context, id string) (*runtime.Runtime, error) {
	v, err, _ := d.group.Do(id, func() (interface{}, error) {
		if rt, ok := d.runtimes.Get(id); ok {
			return rt, nil
		}

		meta, err := d.repo.GetTournament(ctx, id)
		if err != nil {
			return nil, err
		}
		if meta.EndedAt != nil {
			return nil, model.NewFailure(model.CodeAlreadyEnded, "Tournament has already ended.")
		}

		return d.runtimes.GetOrCreate(id, func() *runtime.Runtime {
			return d.factory(*meta)
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*runtime.Runtime), nil
}
