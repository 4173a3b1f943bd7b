// Package store provides the keyed in-memory container backing the runtime
// registries and the per-room participant maps. A single mutex guards each
// store; every operation is a short critical section and no user callback
// other than the creation factory and per-entry updates runs under the lock.
package store

import "sync"

// Store maps string keys to values of type T. The zero value is not usable;
// construct with New.
type Store[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

func New[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Store[T]) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// GetOrCreate returns the existing value for key, or stores and returns the
// factory's result. The factory runs under the store lock, so racing callers
// observe exactly one invocation per key.
func (s *Store[T]) GetOrCreate(key string, factory func() T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[key]; ok {
		return v
	}
	v := factory()
	s.items[key] = v
	return v
}

// Update exposes exclusive access to exactly one entry. It reports whether the
// key existed; the callback is not invoked otherwise.
func (s *Store[T]) Update(key string, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return false
	}
	fn(&v)
	s.items[key] = v
	return true
}

func (s *Store[T]) Delete(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return v, ok
}

// Values returns a point-in-time snapshot of all stored values.
func (s *Store[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	return out
}

func (s *Store[T]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

func (s *Store[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
