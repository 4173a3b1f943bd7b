// Package repository is the persistence boundary for tournament metadata and
// challenge texts. The core only consumes the Repository contract; the
// in-memory implementation below is the default backend.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

var ErrNotFound = errors.New("repository: tournament not found")

// TournamentUpdate is the write-back shape: only ended_at is ever persisted
// after creation.
type TournamentUpdate struct {
	ID      string
	EndedAt *time.Time
}

// Repository defines the store contract the runtimes and the dispatcher use.
type Repository interface {
	GetTournament(ctx context.Context, id string) (*model.TournamentMeta, error)
	CreateTournament(ctx context.Context, meta model.TournamentMeta) error
	UpdateTournament(ctx context.Context, upd TournamentUpdate) error

	// GenerateText returns the challenge text for a tournament, generating
	// and caching it on first call. May be slow; never fails.
	GenerateText(id string, opts model.TextOptions) string
}
