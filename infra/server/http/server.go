// Package httpsrv hosts the HTTP surface: the websocket upgrade endpoint,
// health, and the small query/admin API the monitor and external services use.
package httpsrv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/typeclash/tournament-service/infra/ws"
	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/registry"
	"github.com/typeclash/tournament-service/internal/domain/runtime"
)

// ApiResponse is the uniform JSON envelope for the REST endpoints.
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// API serves the query endpoints backed by the registries and the repository.
type API struct {
	logger   *slog.Logger
	repo     repository.Repository
	runtimes *registry.RuntimeRegistry
	sessions *registry.SessionRegistry
}

func NewAPI(
	logger *slog.Logger,
	repo repository.Repository,
	runtimes *registry.RuntimeRegistry,
	sessions *registry.SessionRegistry,
) *API {
	return &API{logger: logger, repo: repo, runtimes: runtimes, sessions: sessions}
}

func NewRouter(logger *slog.Logger, wsHandler *ws.Handler, api *API) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/ws", wsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rooms", api.listRooms)
		r.Get("/sessions/{memberID}", api.getSession)
		r.Post("/tournaments", api.createTournament)
		r.Get("/tournaments/{id}", api.getTournament)
	})

	return r
}

func (a *API) listRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := a.runtimes.All()
	stats := make([]runtime.Stats, 0, len(rooms))
	for _, rt := range rooms {
		stats = append(stats, rt.Stats())
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats})
}

// getSession answers "which tournament is member X in, and how is it going".
func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	sess, ok := a.sessions.Get(memberID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ApiResponse{Success: false, Message: "no session for member"})
		return
	}

	payload := struct {
		Session model.ParticipantData `json:"session"`
		Room    *runtime.LiveData     `json:"room,omitempty"`
	}{Session: model.ParticipantDataOf(sess)}

	if rt, live := a.runtimes.Get(sess.TournamentID); live {
		data := rt.LiveData(memberID)
		payload.Room = &data
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: payload})
}

type createTournamentRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	CreatedBy    string             `json:"createdBy"`
	ScheduledFor time.Time          `json:"scheduledFor"`
	TextOptions  *model.TextOptions `json:"textOptions,omitempty"`
}

func (a *API) createTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: "malformed request body"})
		return
	}
	if req.Title == "" || req.ScheduledFor.IsZero() {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: "title and scheduledFor are required"})
		return
	}

	meta := model.TournamentMeta{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    time.Now().UTC(),
		ScheduledFor: req.ScheduledFor,
		TextOptions:  model.DefaultTextOptions(),
	}
	if req.TextOptions != nil {
		meta.TextOptions = *req.TextOptions
	}

	if err := a.repo.CreateTournament(r.Context(), meta); err != nil {
		a.logger.Error("failed to create tournament", "error", err)
		writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "failed to create tournament"})
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: meta})
}

func (a *API) getTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := a.repo.GetTournament(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ApiResponse{Success: false, Message: "tournament not found"})
			return
		}
		a.logger.Error("tournament lookup failed", "tournament_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: meta})
}

func writeJSON(w http.ResponseWriter, status int, body ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
