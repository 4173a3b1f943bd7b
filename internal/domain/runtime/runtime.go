// Package runtime implements the per-room tournament state machine: join
// policy, typing ingestion, coalesced fan-out, timed lifecycle transitions and
// eventual self-eviction. One Runtime exists per active tournament id; the
// registry package owns the map.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/typeclash/tournament-service/infra/scheduler"
	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/debounce"
	"github.com/typeclash/tournament-service/internal/domain/event"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/store"
	"github.com/typeclash/tournament-service/internal/domain/transport"
)

// Evictor removes a runtime from the process-wide registry. Implemented by
// the registry package; declared here so the dependency points one way.
type Evictor interface {
	Evict(id string)
}

// SessionSink mirrors participant sessions into the global session registry
// so the HTTP layer can answer "which tournament is member X in".
type SessionSink interface {
	Put(memberID string, s model.Session)
	Delete(memberID string)
}

// EventPublisher pushes lifecycle events to the message bus, best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.Eventer) error
}

// Config carries the room timing profile. All durations have spec'd defaults
// wired in from the config package.
type Config struct {
	JoinGrace         time.Duration
	MatchDuration     time.Duration
	InactivityTimeout time.Duration
	EvictAfter        time.Duration

	Ingest debounce.Config
	Fanout debounce.Config
}

// Deps bundles the shared collaborators every runtime borrows. Now is the
// clock; nil means time.Now.
type Deps struct {
	Logger      *slog.Logger
	Repo        repository.Repository
	Broadcaster transport.Broadcaster
	Scheduler   scheduler.Scheduler
	Sessions    SessionSink
	Evictor     Evictor
	Publisher   EventPublisher
	Config      Config
	Now         func() time.Time
}

// Factory builds a runtime for a loaded tournament. The registry invokes it
// under its single-flight get-or-create.
type Factory func(meta model.TournamentMeta) *Runtime

// Runtime owns a single room: its state, participant sessions, both debouncer
// disciplines and the lifecycle timers.
type Runtime struct {
	meta model.TournamentMeta
	deps Deps
	log  *slog.Logger

	// mu guards the room state below. Never held across a broadcast or a
	// repository call.
	mu           sync.Mutex
	startedAt    *time.Time
	endedAt      *time.Time
	scheduledEnd *time.Time
	text         []byte
	sockets      map[string]transport.Socket

	participants *store.Store[model.Session]
	fanout       *debounce.Trigger

	closersMu sync.Mutex
	closers   []func()
}

// New constructs the runtime and arms the start timer. A scheduled_for in the
// past starts the room immediately on its own goroutine.
func New(meta model.TournamentMeta, deps Deps) *Runtime {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	rt := &Runtime{
		meta:         meta,
		deps:         deps,
		log:          deps.Logger.With("tournament_id", meta.ID),
		sockets:      make(map[string]transport.Socket),
		participants: store.New[model.Session](),
	}
	rt.fanout = debounce.NewTrigger(rt.broadcastAll, deps.Config.Fanout)

	if _, err := deps.Scheduler.Schedule("tournament-start:"+meta.ID, meta.ScheduledFor, rt.executeStart); err != nil {
		rt.log.Warn("start instant already passed, starting now", "scheduled_for", meta.ScheduledFor, "error", err)
		go rt.executeStart()
	}
	return rt
}

// Meta returns the immutable tournament description.
func (rt *Runtime) Meta() model.TournamentMeta { return rt.meta }

func (rt *Runtime) room() string { return rt.meta.ID }

// Connect admits a socket into the room, or rejects it with join:failure.
//
// Non-spectators are rejected once the room ended, started, or once the join
// grace window before the start has begun. Spectators may join at any time.
func (rt *Runtime) Connect(socket transport.Socket, spectator bool, noauthEcho string) error {
	member := socket.Member()
	now := rt.deps.Now()

	if !spectator {
		rt.mu.Lock()
		closed := rt.endedAt != nil || rt.startedAt != nil ||
			rt.meta.ScheduledFor.Sub(now) <= rt.deps.Config.JoinGrace
		rt.mu.Unlock()

		if closed {
			failure := model.NewFailure(model.CodeNotAccepting, "Tournament is no longer accepting participants.")
			socket.Emit("join:failure", failure)
			socket.Close()
			return failure
		}
	}

	socket.Join(rt.room())
	rt.mu.Lock()
	rt.sockets[socket.ID()] = socket
	rt.mu.Unlock()

	if !spectator {
		sess := rt.participants.GetOrCreate(member.ID, func() model.Session {
			return model.NewSession(member, rt.meta.ID)
		})
		rt.deps.Sessions.Put(member.ID, sess)

		rt.deps.Broadcaster.ToRoomExcept(rt.room(), socket.ID(), "participant:joined",
			model.ParticipantJoinedPayload{Participant: model.ParticipantDataOf(sess)})
	}

	snapshot := rt.participants.Values()
	participants := make([]model.ParticipantData, 0, len(snapshot))
	for _, s := range snapshot {
		participants = append(participants, model.ParticipantDataOf(s))
	}

	socket.Emit("join:success", model.JoinSuccessPayload{
		Data:         rt.tournamentData(),
		Member:       member,
		Participants: participants,
		Noauth:       noauthEcho,
	})

	rt.registerHandlers(socket, spectator)

	rt.log.Info("member joined",
		"member_id", member.ID,
		"socket_id", socket.ID(),
		"spectator", spectator,
		"participants", rt.participants.Count(),
	)
	return nil
}

// executeStart fires once at scheduled_for. An empty room shuts down on the
// spot; otherwise the text snapshot is fixed, typing opens, and the end timer
// is armed.
func (rt *Runtime) executeStart() {
	if rt.participants.Count() == 0 {
		rt.log.Info("start instant reached with no participants, closing room")
		rt.Shutdown()
		return
	}

	text := rt.deps.Repo.GenerateText(rt.meta.ID, rt.meta.TextOptions)
	now := rt.deps.Now()
	end := now.Add(rt.deps.Config.MatchDuration)

	rt.mu.Lock()
	if rt.endedAt != nil {
		rt.mu.Unlock()
		return
	}
	rt.startedAt = &now
	rt.scheduledEnd = &end
	rt.text = []byte(text)
	sockets := make([]transport.Socket, 0, len(rt.sockets))
	for _, s := range rt.sockets {
		sockets = append(sockets, s)
	}
	rt.mu.Unlock()

	for _, socket := range sockets {
		if rt.participants.Contains(socket.Member().ID) {
			rt.attachTyping(socket)
		}
	}

	rt.deps.Broadcaster.ToRoom(rt.room(), "update:data", model.UpdateDataPayload{
		Updates: model.PartialTournamentData{StartedAt: &now, Text: &text},
	})

	if _, err := rt.deps.Scheduler.Schedule("tournament-end:"+rt.meta.ID, end, rt.Shutdown); err != nil {
		rt.log.Error("failed to arm end timer, closing room", "error", err)
		go rt.Shutdown()
		return
	}

	rt.publish(event.RoutingKeyTournamentStarted)
	rt.log.Info("tournament started", "participants", rt.participants.Count(), "scheduled_end", end)
}

// Shutdown ends the room. Idempotent: the first call persists ended_at,
// notifies the room, flushes the fan-out pipeline and arms eviction; later
// calls return immediately.
func (rt *Runtime) Shutdown() {
	now := rt.deps.Now()

	rt.mu.Lock()
	if rt.endedAt != nil {
		rt.mu.Unlock()
		return
	}
	rt.endedAt = &now
	rt.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.deps.Repo.UpdateTournament(ctx, repository.TournamentUpdate{ID: rt.meta.ID, EndedAt: &now}); err != nil {
		rt.log.Error("failed to persist tournament end", "error", err)
	}

	rt.deps.Broadcaster.ToRoom(rt.room(), "update:data", model.UpdateDataPayload{
		Updates: model.PartialTournamentData{EndedAt: &now},
	})

	rt.fanout.Shutdown()
	rt.publish(event.RoutingKeyTournamentEnded)

	evictAt := now.Add(rt.deps.Config.EvictAfter)
	if _, err := rt.deps.Scheduler.Schedule("tournament-evict:"+rt.meta.ID, evictAt, rt.evict); err != nil {
		rt.log.Warn("failed to arm eviction timer, evicting now", "error", err)
		go rt.evict()
	}

	rt.log.Info("tournament ended", "ended_at", now)
}

// evict releases everything the room still holds and removes the runtime from
// the registry.
func (rt *Runtime) evict() {
	for _, memberID := range rt.participants.Keys() {
		rt.participants.Delete(memberID)
		rt.deps.Sessions.Delete(memberID)
	}

	rt.closersMu.Lock()
	closers := rt.closers
	rt.closers = nil
	rt.closersMu.Unlock()
	for _, stop := range closers {
		stop()
	}

	rt.mu.Lock()
	rt.sockets = make(map[string]transport.Socket)
	rt.mu.Unlock()

	rt.deps.Evictor.Evict(rt.meta.ID)
	rt.log.Info("room evicted")
}

// broadcastAll is the fan-out debouncer's release action: snapshot every
// session and emit one update:all. When every participant has finished, the
// room winds down early.
func (rt *Runtime) broadcastAll() {
	snapshot := rt.participants.Values()
	if len(snapshot) == 0 {
		return
	}

	updates := make([]model.MemberUpdate, 0, len(snapshot))
	allDone := true
	for _, s := range snapshot {
		updates = append(updates, model.MemberUpdate{MemberID: s.Member.ID, Updates: model.PartialOf(s)})
		if !s.Finished() {
			allDone = false
		}
	}

	rt.deps.Broadcaster.ToRoom(rt.room(), "update:all", model.UpdateAllPayload{Updates: updates})

	if allDone {
		// Shutdown flushes this very debouncer, so it cannot run on the
		// release worker.
		go rt.Shutdown()
	}
}

// handleParticipantLeave drops a participant's session and tells the room.
// Spectators detach silently.
func (rt *Runtime) handleParticipantLeave(memberID string, socket transport.Socket) {
	sess, existed := rt.participants.Delete(memberID)
	socket.Leave(rt.room())

	rt.mu.Lock()
	delete(rt.sockets, socket.ID())
	started := rt.startedAt != nil
	ended := rt.endedAt != nil
	rt.mu.Unlock()

	if !existed {
		return
	}
	rt.deps.Sessions.Delete(memberID)
	rt.deps.Broadcaster.ToRoomExcept(rt.room(), socket.ID(), "participant:left",
		model.ParticipantLeftPayload{MemberID: memberID})
	rt.log.Info("participant left", "member_id", memberID, "session_finished", sess.Finished())

	if started && !ended && rt.participants.Count() == 0 {
		go rt.Shutdown()
	}
}

// publish sends a lifecycle event to the bus, best-effort.
func (rt *Runtime) publish(routingKey string) {
	if rt.deps.Publisher == nil {
		return
	}
	ev := &event.TournamentEvent{
		ID:           uuid.NewString(),
		TournamentID: rt.meta.ID,
		RoutingKey:   routingKey,
		Participants: rt.participants.Count(),
		OccurredAt:   rt.deps.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.deps.Publisher.Publish(ctx, ev); err != nil {
		rt.log.Warn("failed to publish lifecycle event", "routing_key", routingKey, "error", err)
	}
}

// status derives the check answer from the room state.
func (rt *Runtime) status() model.TournamentStatus {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	switch {
	case rt.endedAt != nil:
		return model.StatusEnded
	case rt.startedAt != nil:
		return model.StatusStarted
	default:
		return model.StatusUpcoming
	}
}

// ended reports whether the room has shut down.
func (rt *Runtime) ended() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.endedAt != nil
}

// textSnapshot returns the immutable challenge text, nil before start.
func (rt *Runtime) textSnapshot() []byte {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.text
}

// tournamentData builds the full room view. The text is included only once
// the room has started.
func (rt *Runtime) tournamentData() model.TournamentData {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	data := model.TournamentData{
		ID:           rt.meta.ID,
		Title:        rt.meta.Title,
		Description:  rt.meta.Description,
		CreatedAt:    rt.meta.CreatedAt,
		CreatedBy:    rt.meta.CreatedBy,
		ScheduledFor: rt.meta.ScheduledFor,
		StartedAt:    rt.startedAt,
		EndedAt:      rt.endedAt,
		ScheduledEnd: rt.scheduledEnd,
	}
	if rt.startedAt != nil && len(rt.text) > 0 {
		text := string(rt.text)
		data.Text = &text
	}
	return data
}

// LiveData answers the HTTP "where is member X" lookup for this room.
type LiveData struct {
	ParticipantCount int        `json:"participantCount"`
	Participating    bool       `json:"participating"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
}

func (rt *Runtime) LiveData(memberID string) LiveData {
	rt.mu.Lock()
	startedAt, endedAt := rt.startedAt, rt.endedAt
	rt.mu.Unlock()

	return LiveData{
		ParticipantCount: rt.participants.Count(),
		Participating:    rt.participants.Contains(memberID),
		StartedAt:        startedAt,
		EndedAt:          endedAt,
	}
}

// Stats is the ops view of a room, one row in the monitor table.
type Stats struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Status       model.TournamentStatus `json:"status"`
	Participants int                    `json:"participants"`
	ScheduledFor time.Time              `json:"scheduledFor"`
	StartedAt    *time.Time             `json:"startedAt,omitempty"`
	EndedAt      *time.Time             `json:"endedAt,omitempty"`
}

func (rt *Runtime) Stats() Stats {
	rt.mu.Lock()
	startedAt, endedAt := rt.startedAt, rt.endedAt
	rt.mu.Unlock()

	return Stats{
		ID:           rt.meta.ID,
		Title:        rt.meta.Title,
		Status:       rt.status(),
		Participants: rt.participants.Count(),
		ScheduledFor: rt.meta.ScheduledFor,
		StartedAt:    startedAt,
		EndedAt:      endedAt,
	}
}

// addCloser registers a per-socket resource released at eviction.
func (rt *Runtime) addCloser(stop func()) {
	rt.closersMu.Lock()
	rt.closers = append(rt.closers, stop)
	rt.closersMu.Unlock()
}
