package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/cardlens/cardlens/internal/overlay"
)

// Session is one host page with its own overlay
type Session struct {
	ID        string
	Machine   *overlay.Machine
	CreatedAt time.Time
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// GetOrCreate returns the session for sessionID, creating it with a machine
// from newMachine when missing. The bool reports whether it was created.
func (s *SessionStore) GetOrCreate(sessionID string, newMachine func() *overlay.Machine) (*Session, bool) {
	if session, ok := s.Get(sessionID); ok {
		return session, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session, false
	}
	session := &Session{ID: sessionID, Machine: newMachine(), CreatedAt: time.Now()}
	s.sessions[sessionID] = session
	return session, true
}

// GetAll returns every session, oldest first
func (s *SessionStore) GetAll() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return ok
}
