package runtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/typeclash/tournament-service/infra/scheduler"
	"github.com/typeclash/tournament-service/internal/adapter/repository"
	"github.com/typeclash/tournament-service/internal/domain/event"
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/transport"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type emitted struct {
	event   string
	payload any
}

type fakeSocket struct {
	id     string
	member model.Member

	mu           sync.Mutex
	emitted      []emitted
	handlers     map[string]transport.Handler
	onDisconnect func()
	rooms        map[string]bool
	closed       bool
}

func newFakeSocket(id string, member model.Member) *fakeSocket {
	return &fakeSocket{
		id:       id,
		member:   member,
		handlers: make(map[string]transport.Handler),
		rooms:    make(map[string]bool),
	}
}

func (s *fakeSocket) ID() string           { return s.id }
func (s *fakeSocket) Member() model.Member { return s.member }

func (s *fakeSocket) Emit(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = append(s.emitted, emitted{event: event, payload: payload})
}

func (s *fakeSocket) On(event string, h transport.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = h
}

func (s *fakeSocket) OnDisconnect(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = h
}

func (s *fakeSocket) Join(room string)  { s.mu.Lock(); s.rooms[room] = true; s.mu.Unlock() }
func (s *fakeSocket) Leave(room string) { s.mu.Lock(); delete(s.rooms, room); s.mu.Unlock() }
func (s *fakeSocket) Close()            { s.mu.Lock(); s.closed = true; s.mu.Unlock() }

// receive simulates an inbound client event.
func (s *fakeSocket) receive(event string, payload any) {
	s.mu.Lock()
	h, ok := s.handlers[event]
	s.mu.Unlock()
	if !ok {
		return
	}
	var data json.RawMessage
	if payload != nil {
		data, _ = json.Marshal(payload)
	}
	h(data)
}

func (s *fakeSocket) events() []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]emitted, len(s.emitted))
	copy(out, s.emitted)
	return out
}

func (s *fakeSocket) lastEvent(name string) (emitted, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.emitted) - 1; i >= 0; i-- {
		if s.emitted[i].event == name {
			return s.emitted[i], true
		}
	}
	return emitted{}, false
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSocket) hasHandler(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handlers[event]
	return ok
}

type broadcastRec struct {
	room    string
	except  string
	event   string
	payload any
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcastRec
}

func (b *fakeBroadcaster) ToRoom(room, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcastRec{room: room, event: event, payload: payload})
}

func (b *fakeBroadcaster) ToRoomExcept(room, exceptID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcastRec{room: room, except: exceptID, event: event, payload: payload})
}

func (b *fakeBroadcaster) byEvent(name string) []broadcastRec {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastRec
	for _, r := range b.sent {
		if r.event == name {
			out = append(out, r)
		}
	}
	return out
}

type schedTask struct {
	name   string
	at     time.Time
	action func()
}

// fakeScheduler stores tasks for manual firing so tests control time.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []schedTask
}

func (f *fakeScheduler) Schedule(name string, at time.Time, action func()) (*scheduler.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, schedTask{name: name, at: at, action: action})
	return &scheduler.Handle{}, nil
}

func (f *fakeScheduler) fire(prefix string) bool {
	f.mu.Lock()
	var action func()
	for _, t := range f.tasks {
		if len(t.name) >= len(prefix) && t.name[:len(prefix)] == prefix {
			action = t.action
			break
		}
	}
	f.mu.Unlock()
	if action == nil {
		return false
	}
	action()
	return true
}

type fakeRepo struct {
	mu          sync.Mutex
	text        string
	updates     []repository.TournamentUpdate
	updateErr   error
	generations int
}

func (r *fakeRepo) GetTournament(context.Context, string) (*model.TournamentMeta, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) CreateTournament(context.Context, model.TournamentMeta) error { return nil }

func (r *fakeRepo) UpdateTournament(_ context.Context, upd repository.TournamentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, upd)
	return r.updateErr
}

func (r *fakeRepo) GenerateText(string, model.TextOptions) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations++
	return r.text
}

func (r *fakeRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

type fakeSink struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSink() *fakeSink { return &fakeSink{sessions: make(map[string]model.Session)} }

func (s *fakeSink) Put(memberID string, sess model.Session) {
	s.mu.Lock()
	s.sessions[memberID] = sess
	s.mu.Unlock()
}

func (s *fakeSink) Delete(memberID string) {
	s.mu.Lock()
	delete(s.sessions, memberID)
	s.mu.Unlock()
}

func (s *fakeSink) contains(memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[memberID]
	return ok
}

type fakeEvictor struct {
	mu      sync.Mutex
	evicted []string
}

func (e *fakeEvictor) Evict(id string) {
	e.mu.Lock()
	e.evicted = append(e.evicted, id)
	e.mu.Unlock()
}

func (e *fakeEvictor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.evicted)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Eventer
}

func (p *fakePublisher) Publish(_ context.Context, ev event.Eventer) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.GetRoutingKey())
	}
	return out
}

type fixture struct {
	clock       *fakeClock
	broadcaster *fakeBroadcaster
	scheduler   *fakeScheduler
	repo        *fakeRepo
	sink        *fakeSink
	evictor     *fakeEvictor
	publisher   *fakePublisher
	meta        model.TournamentMeta
	rt          *Runtime
}

var fixtureBase = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func newFixture(scheduledIn time.Duration) *fixture {
	f := &fixture{
		clock:       newFakeClock(fixtureBase),
		broadcaster: &fakeBroadcaster{},
		scheduler:   &fakeScheduler{},
		repo:        &fakeRepo{text: "alpha beta"},
		sink:        newFakeSink(),
		evictor:     &fakeEvictor{},
		publisher:   &fakePublisher{},
	}
	f.meta = model.TournamentMeta{
		ID:           "t1",
		Title:        "Evening sprint",
		ScheduledFor: fixtureBase.Add(scheduledIn),
		TextOptions:  model.DefaultTextOptions(),
	}
	f.rt = New(f.meta, Deps{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Repo:        f.repo,
		Broadcaster: f.broadcaster,
		Scheduler:   f.scheduler,
		Sessions:    f.sink,
		Evictor:     f.evictor,
		Publisher:   f.publisher,
		Config: Config{
			JoinGrace:         15 * time.Second,
			MatchDuration:     10 * time.Minute,
			InactivityTimeout: 30 * time.Second,
			EvictAfter:        10 * time.Minute,
			Ingest:            ingestProfile,
			Fanout:            fanoutProfile,
		},
		Now: f.clock.Now,
	})
	return f
}

func participantMember(id string) model.Member {
	return model.Member{ID: id, User: &model.User{Username: "user-" + id}, Participant: true}
}
