// Package conversation holds the in-memory conversation history.
package conversation

import (
	"sync"

	"github.com/longkey1/thoughtrelay/internal/relay"
)

// Store is an append-only, ordered log of turns. The system instruction is
// never stored here; it is injected at prompt assembly time.
//
// All methods are safe for concurrent use. The lock is held only for the
// duration of a single Append, Snapshot or Clear.
type Store struct {
	mu    sync.Mutex
	turns []relay.Turn
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a turn to the end of the history. Role order is not validated.
func (s *Store) Append(turn relay.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Snapshot returns a copy of the history in insertion order.
func (s *Store) Snapshot() []relay.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]relay.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear empties the history. Calling it on an empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
