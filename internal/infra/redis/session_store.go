package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"smartlearn-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in-process (they hold the per-learner lock);
// Redis carries liveness markers with a TTL so operators can see which
// learners have open sessions across restarts and instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(studentID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[studentID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(studentID), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.key(studentID)).Err()
}

func (s *SessionStore) key(studentID string) string {
	return "assessment:session:" + studentID
}
