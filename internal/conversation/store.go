// Package conversation keeps per-user, per-chat question/answer history in
// memory. Histories are bounded and evicted oldest-first; nothing here talks
// to the network or the database.
package conversation

import (
	"sync"
)

// DefaultMaxDepth is used when the store is constructed with a non-positive
// depth.
const DefaultMaxDepth = 3

// Turn is one resolved question/answer exchange. Immutable once recorded.
type Turn struct {
	Question string
	Answer   string
}

// Key identifies a conversation. The same user talking in two different
// chats has two independent histories.
type Key struct {
	UserID int64
	ChatID int64
}

// Store holds bounded conversation histories keyed by (user, chat).
//
// History returns a snapshot copy, so callers may hold the result across
// slow operations (an AI call) without blocking writers. Record is the only
// mutator; its critical section is a single append plus eviction.
type Store struct {
	mu       sync.RWMutex
	maxDepth int
	sessions map[Key][]Turn
}

// NewStore creates an empty store. Histories never grow beyond maxDepth
// turns; the depth is fixed for the lifetime of the store, so changing the
// configured depth requires a restart.
func NewStore(maxDepth int) *Store {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Store{
		maxDepth: maxDepth,
		sessions: make(map[Key][]Turn),
	}
}

// MaxDepth returns the depth the store was constructed with.
func (s *Store) MaxDepth() int {
	return s.maxDepth
}

// History returns a copy of the stored history for key, oldest turn first.
// The result is nil when no turns have been recorded.
func (s *Store) History(key Key) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.sessions[key]
	if len(h) == 0 {
		return nil
	}
	out := make([]Turn, len(h))
	copy(out, h)
	return out
}

// LastQuestion returns the question side of the most recent turn for key.
// The second return is false when the history is empty.
func (s *Store) LastQuestion(key Key) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.sessions[key]
	if len(h) == 0 {
		return "", false
	}
	return h[len(h)-1].Question, true
}

// Record appends turn to the history for key and evicts the oldest turns
// until the history fits the configured depth again. Only recency matters
// for model context, so eviction is strictly FIFO.
func (s *Store) Record(key Key, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.sessions[key], turn)
	if n := len(h) - s.maxDepth; n > 0 {
		// Shift in place; History hands out copies so nothing aliases h.
		copy(h, h[n:])
		h = h[:s.maxDepth]
	}
	s.sessions[key] = h
}

// Reset drops every stored history. Used by the administrative reset
// command.
func (s *Store) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions)
	s.sessions = make(map[Key][]Turn)
	return n
}
