package ws

import (
	"log/slog"
	"sync"
)

// Hub tracks which connections are in which room and fans events out. Rooms
// are created lazily on first join and reclaimed when the last connection
// leaves.
type Hub struct {
	logger *slog.Logger
	opts   options

	mu    sync.RWMutex
	rooms map[string]map[string]*Conn
}

func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Hub{
		logger: logger,
		opts:   o,
		rooms:  make(map[string]map[string]*Conn),
	}
}

func (h *Hub) join(room string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		conns = make(map[string]*Conn)
		h.rooms[room] = conns
	}
	conns[c.id] = c
}

func (h *Hub) leave(room string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(conns, c.id)
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) ToRoom(room, event string, payload any) {
	h.broadcast(room, "", event, payload)
}

func (h *Hub) ToRoomExcept(room, exceptID, event string, payload any) {
	h.broadcast(room, exceptID, event, payload)
}

func (h *Hub) broadcast(room, exceptID, event string, payload any) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.rooms[room]))
	for id, c := range h.rooms[room] {
		if id == exceptID {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	// Emit never blocks, so the snapshot is walked without holding the lock
	// for the duration of any write.
	for _, c := range conns {
		c.Emit(event, payload)
	}
}

// RoomCount reports how many rooms currently have at least one connection.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ConnCount reports the number of connections in one room.
func (h *Hub) ConnCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Shutdown closes every connection still attached to any room.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	seen := make(map[string]*Conn)
	for _, conns := range h.rooms {
		for id, c := range conns {
			seen[id] = c
		}
	}
	h.rooms = make(map[string]map[string]*Conn)
	h.mu.Unlock()

	for _, c := range seen {
		c.Close()
	}
	h.logger.Info("hub shut down", "connections_closed", len(seen))
}
