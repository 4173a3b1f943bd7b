package repository

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

const textCacheSize = 1024

// InMemory keeps tournament metadata in a plain map and generated challenge
// texts in an LRU cache keyed by tournament id, so every participant of a room
// types against the same text without regeneration.
type InMemory struct {
	logger *slog.Logger

	mu    sync.RWMutex
	items map[string]model.TournamentMeta

	texts *lru.Cache[string, string]
}

func NewInMemory(logger *slog.Logger) *InMemory {
	cache, _ := lru.New[string, string](textCacheSize)
	return &InMemory{
		logger: logger,
		items:  make(map[string]model.TournamentMeta),
		texts:  cache,
	}
}

func (r *InMemory) GetTournament(_ context.Context, id string) (*model.TournamentMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &meta, nil
}

func (r *InMemory) CreateTournament(_ context.Context, meta model.TournamentMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[meta.ID] = meta
	return nil
}

func (r *InMemory) UpdateTournament(_ context.Context, upd TournamentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.items[upd.ID]
	if !ok {
		return ErrNotFound
	}
	if upd.EndedAt != nil {
		meta.EndedAt = upd.EndedAt
	}
	r.items[upd.ID] = meta
	return nil
}

func (r *InMemory) GenerateText(id string, opts model.TextOptions) string {
	if text, ok := r.texts.Get(id); ok {
		return text
	}

	if opts.MinWords <= 0 || opts.MaxWords < opts.MinWords {
		opts = model.DefaultTextOptions()
	}
	count := opts.MinWords + rand.Intn(opts.MaxWords-opts.MinWords+1)

	words := make([]string, count)
	for i := range words {
		words[i] = strings.ToLower(gofakeit.Word())
	}
	text := strings.Join(words, " ")

	r.texts.Add(id, text)
	r.logger.Debug("challenge text generated", "tournament_id", id, "words", count)
	return text
}
