package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/supportdesk/internal/domain"
)

// MemorySessionStore implements engine.SessionStore in process memory.
// Sessions do not survive restarts; useful for tests and the REPL.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	ttl      time.Duration
}

type memorySession struct {
	data         []byte
	lastActivity time.Time
	expiresAt    time.Time
}

// NewMemorySessionStore creates an in-memory session store with the given TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

// Get returns a session by ID. Expired sessions are dropped and reported as
// ErrNotFound. The returned session is a copy; mutations are not visible
// until Put.
func (s *MemorySessionStore) Get(id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

// Put upserts a session and extends its expiry by the store TTL.
func (s *MemorySessionStore) Put(sess *domain.Session) error {
	now := time.Now()
	sess.LastActivity = now
	sess.ExpiresAt = now.Add(s.ttl)

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memorySession{
		data:         data,
		lastActivity: sess.LastActivity,
		expiresAt:    sess.ExpiresAt,
	}
	return nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns all live session IDs, most recently active first.
func (s *MemorySessionStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	type entry struct {
		id   string
		last time.Time
	}
	var live []entry
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			continue
		}
		live = append(live, entry{id: id, last: sess.lastActivity})
	}
	sort.Slice(live, func(i, j int) bool { return live[i].last.After(live[j].last) })

	ids := make([]string, len(live))
	for i, e := range live {
		ids[i] = e.id
	}
	return ids, nil
}

// PurgeExpired removes all expired sessions and returns how many were dropped.
func (s *MemorySessionStore) PurgeExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	n := 0
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
