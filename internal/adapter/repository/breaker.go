package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

// Breaker decorates a Repository with a circuit breaker around the
// persistence calls. Text generation is local and bypasses the breaker.
type Breaker struct {
	next Repository
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Repository, logger *slog.Logger) *Breaker {
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "repository",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A missing tournament is a valid answer, not a backend fault.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("repository breaker state change",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

func (b *Breaker) GetTournament(ctx context.Context, id string) (*model.TournamentMeta, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.GetTournament(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.TournamentMeta), nil
}

func (b *Breaker) CreateTournament(ctx context.Context, meta model.TournamentMeta) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.CreateTournament(ctx, meta)
	})
	return err
}

func (b *Breaker) UpdateTournament(ctx context.Context, upd TournamentUpdate) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.UpdateTournament(ctx, upd)
	})
	return err
}

func (b *Breaker) GenerateText(id string, opts model.TextOptions) string {
	return b.next.GenerateText(id, opts)
}
