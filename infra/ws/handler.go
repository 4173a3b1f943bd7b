package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/typeclash/tournament-service/internal/service"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// the dispatcher.
type Handler struct {
	logger     *slog.Logger
	hub        *Hub
	dispatcher *service.Dispatcher
	identity   *service.IdentityResolver
	upgrader   websocket.Upgrader
}

func NewHandler(
	logger *slog.Logger,
	hub *Hub,
	dispatcher *service.Dispatcher,
	identity *service.IdentityResolver,
) *Handler {
	return &Handler{
		logger:     logger,
		hub:        hub,
		dispatcher: dispatcher,
		identity:   identity,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tournamentID := q.Get("id")
	if tournamentID == "" {
		http.Error(w, "missing tournament id", http.StatusBadRequest)
		return
	}

	hs := service.Handshake{
		TournamentID: tournamentID,
		Spectator:    q.Get("spectator") == "true",
		Anonymous:    q.Get("anonymous") == "true",
		NoauthToken:  r.Header.Get("x-noauth-unique"),
	}
	hs.AuthID, hs.AuthUser = authFromRequest(r)

	identity := h.identity.Resolve(hs)

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}

	conn := newConn(uuid.NewString(), identity.Member, socket, h.hub, h.logger)
	go conn.writePump()

	h.logger.Info("ws opened",
		"socket_id", conn.ID(),
		"member_id", identity.Member.ID,
		"tournament_id", tournamentID,
		"spectator", hs.Spectator,
	)

	if err := h.dispatcher.Dispatch(r.Context(), conn, hs, identity.NoauthEcho); err != nil {
		// The dispatcher already answered and closed the socket.
		return
	}

	conn.readPump()
}
