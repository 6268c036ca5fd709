package memory

import (
	"context"
	"sync"

	"smartlearn-quiz-service/internal/domain"
)

// AttemptLog is an in-memory, append-only attempt store. A single lock around
// the append makes each batch trivially atomic.
type AttemptLog struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

func (l *AttemptLog) AppendAttempts(_ context.Context, batch []domain.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, batch...)
	return nil
}

func (l *AttemptLog) ReadAll(_ context.Context) ([]domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out, nil
}

func (l *AttemptLog) ListByStudent(_ context.Context, studentID string) ([]domain.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range l.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}
