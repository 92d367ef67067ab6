package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/session"
)

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: session ID
	data map[string]session.Session

	// sessions idle longer than maxAge are dropped (0 = unlimited)
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxAge is <= 0, sessions never expire.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]session.Session),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save stores a copy of s and enforces retention.
func (s *MemoryStore) Save(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.ID] = sess.Clone()

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for id, stored := range s.data {
			if stored.UpdatedAt.Before(cutoff) {
				delete(s.data, id)
			}
		}
	}
	return nil
}

// Load returns the session for id.
func (s *MemoryStore) Load(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if s.maxAge > 0 && sess.UpdatedAt.Before(s.now().Add(-s.maxAge)) {
		return session.Session{}, session.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Close() error { return nil }

// Prune deletes sessions not updated since cutoff and returns how many were removed.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, stored := range s.data {
		if stored.UpdatedAt.Before(cutoff) {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}
