// Package transport defines the contracts between the tournament core and the
// websocket layer. The core only ever sees these interfaces; the concrete
// implementation lives in infra/ws.
package transport

import (
	"encoding/json"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

// Envelope is the wire frame: every message in either direction is a named
// event with a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler consumes one inbound event's raw payload.
type Handler func(data json.RawMessage)

// Socket is one client connection as the core sees it. Implementations
// guarantee per-socket sequential dispatch of inbound events; Emit is
// fire-and-forget and must never block the caller.
type Socket interface {
	ID() string
	Member() model.Member

	Emit(event string, payload any)
	On(event string, h Handler)
	OnDisconnect(h func())

	Join(room string)
	Leave(room string)
	Close()
}

// Broadcaster fans an event out to every socket subscribed to a room.
type Broadcaster interface {
	ToRoom(room, event string, payload any)
	// ToRoomExcept skips the socket with the given id.
	ToRoomExcept(room, exceptID, event string, payload any)
}
