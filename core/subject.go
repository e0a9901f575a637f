package core

import (
	"sort"
	"sync"
)

// Subject holds the latest snapshot of a store and pushes every new snapshot
// to its subscribers. A subscriber receives the current value on Subscribe.
//
// Published values are treated as immutable: stores build a fresh value for
// each mutation and never modify one after publishing it.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   map[int]func(T)
}

// NewSubject creates a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Value returns the latest snapshot.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish replaces the snapshot and notifies subscribers in subscription order.
// Callbacks run outside the lock so they may read the store again.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	callbacks := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(v)
	}
}

// Subscribe registers fn and immediately calls it with the current snapshot.
// The returned function removes the subscription.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.value
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Subject[T]) snapshotSubs() []func(T) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}
