package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleMeta(id string) model.TournamentMeta {
	return model.TournamentMeta{
		ID:           id,
		Title:        "Friday night sprint",
		CreatedBy:    "m1",
		CreatedAt:    time.Now(),
		ScheduledFor: time.Now().Add(time.Hour),
		TextOptions:  model.DefaultTextOptions(),
	}
}

func TestInMemoryRoundTrip(t *testing.T) {
	r := NewInMemory(testLogger())
	ctx := context.Background()

	_, err := r.GetTournament(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	meta := sampleMeta("t1")
	require.NoError(t, r.CreateTournament(ctx, meta))

	got, err := r.GetTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, meta.Title, got.Title)
	assert.Nil(t, got.EndedAt)

	ended := time.Now()
	require.NoError(t, r.UpdateTournament(ctx, TournamentUpdate{ID: "t1", EndedAt: &ended}))

	got, err = r.GetTournament(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, ended, *got.EndedAt)

	err = r.UpdateTournament(ctx, TournamentUpdate{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateTextBoundsAndCache(t *testing.T) {
	r := NewInMemory(testLogger())
	opts := model.TextOptions{MinWords: 10, MaxWords: 12}

	text := r.GenerateText("t1", opts)
	words := strings.Fields(text)
	assert.GreaterOrEqual(t, len(words), 10)
	assert.LessOrEqual(t, len(words), 12)
	assert.Equal(t, strings.ToLower(text), text)

	again := r.GenerateText("t1", opts)
	assert.Equal(t, text, again, "a room's text must be generated once")

	other := r.GenerateText("t2", opts)
	assert.NotEmpty(t, other)
}

func TestGenerateTextBadOptionsFallBack(t *testing.T) {
	r := NewInMemory(testLogger())

	text := r.GenerateText("t1", model.TextOptions{MinWords: 20, MaxWords: 5})
	words := strings.Fields(text)
	def := model.DefaultTextOptions()
	assert.GreaterOrEqual(t, len(words), def.MinWords)
	assert.LessOrEqual(t, len(words), def.MaxWords)
}

type flakyRepo struct {
	Repository
	err error
}

func (f *flakyRepo) GetTournament(context.Context, string) (*model.TournamentMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.TournamentMeta{ID: "t1"}, nil
}

func TestBreakerTripsOnConsecutiveFailures(t *testing.T) {
	backend := &flakyRepo{err: errors.New("backend down")}
	b := NewBreaker(backend, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.GetTournament(ctx, "t1")
		require.Error(t, err)
	}

	_, err := b.GetTournament(ctx, "t1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	backend.err = nil
	_, err = b.GetTournament(ctx, "t1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState, "open breaker rejects before reaching the backend")
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	b := NewBreaker(NewInMemory(testLogger()), testLogger())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := b.GetTournament(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
