// Package storage keeps per-chat game sessions in memory and archives
// finished rounds in SQLite.
//
// Sessions are never persisted: a restart drops every round in progress,
// the same as abandoning it. Only the outcome of a finished round reaches
// the archive, which feeds the /stats view.
package storage

import (
	"sync"

	"github.com/rewired-gh/elasticity/internal/game"
)

// Sessions is a thread-safe registry of game states keyed by chat ID.
// Each chat owns its state exclusively; nothing is shared between chats.
type Sessions struct {
	states map[int64]game.State
	mu     sync.RWMutex
}

// NewSessions creates an empty session registry
func NewSessions() *Sessions {
	return &Sessions{
		states: make(map[int64]game.State),
	}
}

// Get returns the chat's state, or the idle zero value.
func (s *Sessions) Get(chatID int64) game.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.states[chatID]
}

// Put replaces the chat's state. Storing an idle state removes the entry.
func (s *Sessions) Put(chatID int64, st game.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !st.Active {
		delete(s.states, chatID)
		return
	}
	s.states[chatID] = st
}

// Update runs fn on the chat's state under the write lock and stores the
// result if fn succeeds. Concurrent updates for the same chat are serialised.
func (s *Sessions) Update(chatID int64, fn func(game.State) (game.State, error)) (game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.states[chatID]
	next, err := fn(current)
	if err != nil {
		return current, err
	}

	if next.Active {
		s.states[chatID] = next
	} else {
		delete(s.states, chatID)
	}
	return next, nil
}

// Active returns the number of chats with a round in progress
func (s *Sessions) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.states)
}
