// Package state provides the concurrent per-user state store backing the
// bot's caches. Every cache in the system (subscriber status, session
// activity, chat history, trade summaries) keys its entries by the stable
// Discord user ID and nothing else; Store makes that contract explicit
// instead of scattering bare maps across packages.
//
// Writes are idempotent overwrite-by-key, so concurrent handlers for the
// same user may at worst duplicate a write. Handlers for different users
// touch disjoint keys and never conflict.
package state

import "sync"

// Store is a concurrency-safe map keyed by user ID.
type Store[V any] struct {
	entries map[string]V
	mu      sync.RWMutex
}

// NewStore creates an empty Store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

// Get returns the entry for the given user ID.
func (s *Store[V]) Get(userID string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[userID]
	return v, ok
}

// Set stores the entry for the given user ID, replacing any previous value.
func (s *Store[V]) Set(userID string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = value
}

// Delete removes the entry for the given user ID, if present.
func (s *Store[V]) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Update applies fn to the current entry (zero value if absent) and stores
// the result, all under the write lock. Used where a read-modify-write span
// must not interleave with another writer for the same user.
func (s *Store[V]) Update(userID string, fn func(current V, exists bool) V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[userID]
	s.entries[userID] = fn(v, ok)
}

// Clear removes all entries. Used by the daily sweep.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]V)
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the user IDs currently present, in no particular order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
