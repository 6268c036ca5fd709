package memory

import (
	"context"
	"sync"

	"smartlearn-quiz-service/internal/domain"
)

// UserStore keeps accounts in memory for demo mode and tests.
type UserStore struct {
	mu     sync.RWMutex
	byName map[string]domain.User
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{byName: make(map[string]domain.User)}
}

func (s *UserStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[user.Username]; exists {
		return domain.User{}, domain.ErrUsernameTaken
	}
	s.nextID++
	user.ID = s.nextID
	s.byName[user.Username] = user
	return user, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byName[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}
