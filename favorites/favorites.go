// Package favorites keeps the set of menu items a user has liked.
// Anonymous visitors have no favorites and nothing is persisted for them.
package favorites

import (
	"context"
	"sort"
	"sync"

	"github.com/itsneelabh/pizzeria/core"
)

// Set is an immutable snapshot of favorite pizza ids.
type Set map[int64]struct{}

// Has reports membership
func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Store holds the favorites of the active user
type Store struct {
	storage core.Storage
	logger  core.Logger

	mu  sync.Mutex
	set *core.Subject[Set]
}

// NewStore creates an empty store
func NewStore(storage core.Storage, logger core.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  core.OrNoOp(logger),
		set:     core.NewSubject(Set{}),
	}
}

// IsFavorite reports whether id is in the active set
func (s *Store) IsFavorite(id int64) bool {
	return s.set.Value().Has(id)
}

// List returns the favorite ids in ascending order
func (s *Store) List() []int64 {
	return s.set.Value().IDs()
}

// Subscribe registers fn for every new snapshot, starting with the current one.
func (s *Store) Subscribe(fn func(Set)) (unsubscribe func()) {
	return s.set.Subscribe(fn)
}

// Toggle flips id for activeUser and persists the result under that user's
// key. It does nothing when activeUser is empty.
func (s *Store) Toggle(ctx context.Context, id int64, activeUser string) {
	key, ok := core.UserKey(core.KeyFavoritesPrefix, activeUser)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.set.Value()
	next := make(Set, len(current)+1)
	for k := range current {
		next[k] = struct{}{}
	}
	if next.Has(id) {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}

	if err := core.WriteJSON(ctx, s.storage, key, next.IDs(), 0); err != nil {
		s.logger.Warn("Failed to persist favorites", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	s.set.Publish(next)
}

// LoadUserFavorites replaces the set with user's persisted favorites.
// An empty user, a missing entry or a corrupt entry all yield an empty set.
func (s *Store) LoadUserFavorites(ctx context.Context, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Set{}
	if key, ok := core.UserKey(core.KeyFavoritesPrefix, user); ok {
		var ids []int64
		if core.ReadJSON(ctx, s.storage, key, &ids, s.logger) {
			for _, id := range ids {
				next[id] = struct{}{}
			}
		}
	}
	s.set.Publish(next)
}

// Clear empties the in-memory set; storage is untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Publish(Set{})
}

// LoadUser implements the session's scoped-store contract.
func (s *Store) LoadUser(ctx context.Context, user string) {
	s.LoadUserFavorites(ctx, user)
}

// Reset implements the session's scoped-store contract.
func (s *Store) Reset(ctx context.Context) {
	s.Clear()
}
