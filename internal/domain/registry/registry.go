// Package registry owns the two process-wide maps: one runtime per active
// tournament id, and one session snapshot per member id for HTTP lookups.
package registry

import (
	"github.com/typeclash/tournament-service/internal/domain/model"
	"github.com/typeclash/tournament-service/internal/domain/runtime"
	"github.com/typeclash/tournament-service/internal/domain/store"
)

// RuntimeRegistry pins each tournament to exactly one Runtime in this
// process. Eviction is only ever called from a runtime's own shutdown path.
type RuntimeRegistry struct {
	runtimes *store.Store[*runtime.Runtime]
}

func NewRuntimeRegistry() *RuntimeRegistry {
	return &RuntimeRegistry{runtimes: store.New[*runtime.Runtime]()}
}

func (r *RuntimeRegistry) Get(id string) (*runtime.Runtime, bool) {
	return r.runtimes.Get(id)
}

// GetOrCreate returns the room for id, building it at most once across
// racing callers.
func (r *RuntimeRegistry) GetOrCreate(id string, factory func() *runtime.Runtime) *runtime.Runtime {
	return r.runtimes.GetOrCreate(id, factory)
}

func (r *RuntimeRegistry) Evict(id string) {
	r.runtimes.Delete(id)
}

func (r *RuntimeRegistry) Keys() []string {
	return r.runtimes.Keys()
}

func (r *RuntimeRegistry) Count() int {
	return r.runtimes.Count()
}

// All snapshots every live runtime, for the ops endpoints.
func (r *RuntimeRegistry) All() []*runtime.Runtime {
	return r.runtimes.Values()
}

// SessionRegistry holds the current (or last-known) session per member id.
type SessionRegistry struct {
	sessions *store.Store[model.Session]
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: store.New[model.Session]()}
}

func (r *SessionRegistry) Put(memberID string, s model.Session) {
	r.sessions.Set(memberID, s)
}

func (r *SessionRegistry) Get(memberID string) (model.Session, bool) {
	return r.sessions.Get(memberID)
}

func (r *SessionRegistry) Delete(memberID string) {
	r.sessions.Delete(memberID)
}

func (r *SessionRegistry) Count() int {
	return r.sessions.Count()
}
