package session

import (
	"context"
	"sync"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

// MemoryStore keeps sessions in a process-local map.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

// Get returns the session for the id, if present.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok, nil
}

// Put inserts or replaces the session.
func (s *MemoryStore) Put(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Delete removes the session if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep removes sessions whose last activity predates the cutoff.
func (s *MemoryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Stats counts sessions, re-evaluating expiry against the cutoff rather
// than trusting the last sweep.
func (s *MemoryStore) Stats(ctx context.Context, cutoff time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Total: len(s.sessions)}
	for _, sess := range s.sessions {
		if sess.Expired(cutoff) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}
