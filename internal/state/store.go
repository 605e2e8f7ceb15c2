// Package state holds observable values shared between the tracker
// operations and the terminal UI.
package state

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Store is an observable value. Set notifies every subscriber synchronously
// in subscription order. Concurrent sets are serialized, so all subscribers
// observe the values in the same order.
//
// A subscriber must not call Set or Subscribe on the store that is
// notifying it.
type Store[T any] struct {
	setMu sync.Mutex

	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID int
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Store[T]) Set(v T) {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	s.value = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Update sets the result of fn applied to the current value.
func (s *Store[T]) Update(fn func(T) T) {
	s.Set(fn(s.Get()))
}

// Subscribe registers fn and calls it right away with the current value.
// The returned func removes the subscription.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Derive returns a store holding fn(src value), recomputed on every set of src.
func Derive[S, T any](src *Store[S], fn func(S) T) *Store[T] {
	out := New(fn(src.Get()))
	src.Subscribe(func(v S) {
		out.Set(fn(v))
	})
	return out
}
