package memory

import (
	"sync"

	"smartlearn-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository,
// mapping each learner to at most one session.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(studentID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[studentID] = session
}

func (s *SessionStore) Get(studentID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[studentID]
	return session, ok
}

func (s *SessionStore) Delete(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, studentID)
}
