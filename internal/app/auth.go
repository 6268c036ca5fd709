package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"smartlearn-quiz-service/internal/domain"
)

// UserRepository persists accounts. Create must reject duplicate usernames
// with domain.ErrUsernameTaken.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// AuthService covers registration and credential verification for the
// surrounding system. The scoring core itself only ever sees student ids.
type AuthService struct {
	users UserRepository
	cost  int
}

func NewAuthService(users UserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("username and password are required")
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies credentials. Unknown users and wrong passwords are both
// reported as domain.ErrInvalidCredentials so callers cannot probe usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}
