// Package ws is the websocket transport: connection pumps, room fan-out and
// the upgrade handler. It implements the Socket and Broadcaster contracts the
// tournament core is written against.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/transport"
)

// Conn is one upgraded client connection. Inbound events are dispatched
// sequentially from the read pump; outbound events go through a buffered send
// channel so a slow client never blocks the core.
type Conn struct {
	id     string
	member model.Member
	logger *slog.Logger

	ws  *websocket.Conn
	hub *Hub

	sendCh    chan transport.Envelope
	done      chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	handlers     map[string]transport.Handler
	onDisconnect []func()
	rooms        map[string]struct{}

	writeTimeout time.Duration
}

func newConn(id string, member model.Member, ws *websocket.Conn, hub *Hub, logger *slog.Logger) *Conn {
	return &Conn{
		id:           id,
		member:       member,
		logger:       logger.With("socket_id", id, "member_id", member.ID),
		ws:           ws,
		hub:          hub,
		sendCh:       make(chan transport.Envelope, hub.opts.sendBuffer),
		done:         make(chan struct{}),
		handlers:     make(map[string]transport.Handler),
		rooms:        make(map[string]struct{}),
		writeTimeout: hub.opts.writeTimeout,
	}
}

func (c *Conn) ID() string           { return c.id }
func (c *Conn) Member() model.Member { return c.member }

// Emit queues an event for delivery. Fire-and-forget: when the client cannot
// keep up the event is dropped and logged.
func (c *Conn) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal outbound event", "event", event, "error", err)
		return
	}

	select {
	case c.sendCh <- transport.Envelope{Event: event, Data: data}:
	case <-c.done:
	default:
		c.logger.Warn("send buffer full, dropping event", "event", event)
	}
}

func (c *Conn) On(event string, h transport.Handler) {
	c.mu.Lock()
	c.handlers[event] = h
	c.mu.Unlock()
}

func (c *Conn) OnDisconnect(h func()) {
	c.mu.Lock()
	c.onDisconnect = append(c.onDisconnect, h)
	c.mu.Unlock()
}

func (c *Conn) Join(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
	c.hub.join(room, c)
}

func (c *Conn) Leave(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
	c.hub.leave(room, c)
}

// Close tears the connection down exactly once: detach from every room, run
// the disconnect callbacks and signal both pumps. The write pump still flushes
// frames queued ahead of Close, so a rejection emitted right before Close
// reaches the client before the socket goes away.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		rooms := make([]string, 0, len(c.rooms))
		for room := range c.rooms {
			rooms = append(rooms, room)
		}
		c.rooms = make(map[string]struct{})
		callbacks := c.onDisconnect
		c.mu.Unlock()

		for _, room := range rooms {
			c.hub.leave(room, c)
		}
		for _, cb := range callbacks {
			cb()
		}

		c.logger.Debug("connection closing")
	})
}

// readPump dispatches inbound envelopes sequentially until the client goes
// away. It blocks; the upgrade handler runs it on the request goroutine.
func (c *Conn) readPump() {
	defer c.Close()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}

		var env transport.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		c.mu.Lock()
		h, ok := c.handlers[env.Event]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("no handler for event", "event", env.Event)
			continue
		}
		h(env.Data)
	}
}

// writePump owns all writes to the underlying websocket, including the final
// flush and the close handshake. The socket is only torn down here.
func (c *Conn) writePump() {
	defer c.ws.Close()

	for {
		select {
		case env := <-c.sendCh:
			if !c.write(env) {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush delivers whatever was queued ahead of Close, then sends the close
// frame.
func (c *Conn) flush() {
	for {
		select {
		case env := <-c.sendCh:
			if !c.write(env) {
				return
			}
		default:
			deadline := time.Now().Add(c.writeTimeout)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

func (c *Conn) write(env transport.Envelope) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteJSON(env); err != nil {
		c.logger.Warn("write failed", "event", env.Event, "error", err)
		return false
	}
	return true
}
