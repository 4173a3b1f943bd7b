package runtime

import (
	"encoding/json"

	"github.com/typeclash/tournament-service/internal/domain/debounce"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/transport"
	"github.com/typeclash/tournament-service/internal/domain/typing"
)

// registerHandlers wires the query and lifecycle events for one socket.
// Typing events are attached separately when the match starts.
func (rt *Runtime) registerHandlers(socket transport.Socket, spectator bool) {
	member := socket.Member()

	socket.On("check", func(json.RawMessage) {
		socket.Emit("check:success", model.CheckSuccessPayload{Status: rt.status()})
	})

	socket.On("all", func(json.RawMessage) {
		snapshot := rt.participants.Values()
		out := make([]model.ParticipantData, 0, len(snapshot))
		for _, s := range snapshot {
			out = append(out, model.ParticipantDataOf(s))
		}
		socket.Emit("all:success", out)
	})

	socket.On("data", func(json.RawMessage) {
		socket.Emit("data:success", rt.tournamentData())
	})

	if !spectator {
		socket.On("me", func(json.RawMessage) {
			sess, ok := rt.participants.Get(member.ID)
			if !ok {
				socket.Emit("me:failure", model.NewFailure(model.CodeSessionMissing, "No session found."))
				return
			}
			socket.Emit("me:success", model.ParticipantDataOf(sess))
		})
	}

	socket.On("leave", func(json.RawMessage) {
		rt.handleParticipantLeave(member.ID, socket)
		socket.Emit("leave:success", model.LeaveSuccessPayload{Message: "Left tournament successfully"})
	})

	socket.OnDisconnect(func() {
		// The member may reconnect before the match starts; the session
		// stays until an explicit leave or room eviction.
		rt.log.Info("socket disconnected", "socket_id", socket.ID(), "member_id", member.ID)
		rt.mu.Lock()
		delete(rt.sockets, socket.ID())
		rt.mu.Unlock()
	})
}

type typedChar struct {
	char rune
	rid  int
}

// attachTyping opens the ingestion pipeline for one participant socket: an
// inactivity watchdog wrapping a per-member debouncer feeding the algorithm.
func (rt *Runtime) attachTyping(socket transport.Socket) {
	member := socket.Member()

	deb := debounce.New[typedChar](rt.deps.Config.Ingest)
	monitor := newTimeoutMonitor(timeoutMonitorConfig{
		wait: rt.deps.Config.InactivityTimeout,
		cleanup: func() {
			rt.expireSession(member.ID)
		},
		afterTimeout: func() {
			rt.log.Warn("typing input after inactivity timeout, dropping", "member_id", member.ID)
		},
	})
	rt.addCloser(func() {
		monitor.Stop()
		deb.Shutdown()
	})

	socket.On("type", func(data json.RawMessage) {
		if rt.ended() {
			return
		}
		var payload model.TypePayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.Character == "" {
			rt.log.Warn("ignoring empty typing input", "member_id", member.ID)
			return
		}
		char := []rune(payload.Character)[0]

		monitor.Call(func() {
			deb.Call(typedChar{char: char, rid: payload.RID}, func(batch []typedChar) {
				rt.processTyped(socket, member.ID, batch)
			})
		})
	})

	socket.On("progress", func(data json.RawMessage) {
		if rt.ended() {
			return
		}
		var payload model.ProgressPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			rt.log.Warn("ignoring malformed progress report", "member_id", member.ID)
			return
		}
		monitor.Call(func() {
			rt.processProgress(socket, member.ID, payload)
		})
	})
}

// processTyped is the ingestion debouncer's release: apply the batch to the
// member's session, answer the sender, then nudge the room fan-out.
func (rt *Runtime) processTyped(socket transport.Socket, memberID string, batch []typedChar) {
	// A batch released after the room ended is dropped on the floor.
	if len(batch) == 0 || rt.ended() {
		return
	}
	input := make([]rune, len(batch))
	for i, c := range batch {
		input[i] = c.char
	}
	rid := batch[len(batch)-1].rid

	text := rt.textSnapshot()
	now := rt.deps.Now()

	var (
		delta   model.PartialParticipantData
		updated model.Session
	)
	ok := rt.participants.Update(memberID, func(s *model.Session) {
		delta = typing.ApplyType(s, input, text, now)
		updated = *s
	})
	if !ok {
		socket.Emit("type:failure", model.NewFailure(model.CodeMemberNotFound, "Member not found."))
		return
	}

	rt.deps.Sessions.Put(memberID, updated)
	socket.Emit("update:me", model.UpdateMePayload{Updates: delta, RID: rid})
	rt.fanout.Trigger()
}

// processProgress applies a client-reported snapshot, bypassing the ingestion
// debouncer.
func (rt *Runtime) processProgress(socket transport.Socket, memberID string, payload model.ProgressPayload) {
	text := rt.textSnapshot()
	now := rt.deps.Now()

	var (
		delta    model.PartialParticipantData
		updated  model.Session
		applyErr error
	)
	ok := rt.participants.Update(memberID, func(s *model.Session) {
		delta, applyErr = typing.ApplyProgress(s, payload, text, now)
		updated = *s
	})
	if !ok {
		socket.Emit("progress:failure", model.NewFailure(model.CodeMemberNotFound, "Member not found."))
		return
	}
	if applyErr != nil {
		if failure, isFailure := applyErr.(model.Failure); isFailure {
			socket.Emit("progress:failure", failure)
		} else {
			rt.log.Error("progress apply failed", "member_id", memberID, "error", applyErr)
		}
		return
	}

	rt.deps.Sessions.Put(memberID, updated)
	socket.Emit("update:me", model.UpdateMePayload{Updates: delta, RID: payload.RID})
	rt.fanout.Trigger()
}

// expireSession is the inactivity cleanup: finish the member's session where
// it stands and let the room see it.
func (rt *Runtime) expireSession(memberID string) {
	now := rt.deps.Now()
	var updated model.Session
	ok := rt.participants.Update(memberID, func(s *model.Session) {
		if s.EndedAt == nil {
			t := now
			s.EndedAt = &t
		}
		updated = *s
	})
	if !ok {
		return
	}
	rt.deps.Sessions.Put(memberID, updated)
	rt.log.Info("session expired after inactivity", "member_id", memberID)
	rt.fanout.Trigger()
}
