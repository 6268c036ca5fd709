package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smartlearn-quiz-service/internal/domain"
)

// SessionRepository maps each learner to at most one session. Implementations
// only need map semantics; all state transitions happen on the Session itself.
type SessionRepository interface {
	Put(studentID string, session *Session)
	Get(studentID string) (*Session, bool)
	Delete(studentID string)
}

// QuestionRepository supplies sampled questions and canonical answers.
type QuestionRepository interface {
	// SampleRandom returns up to count distinct questions in random order,
	// filtered by subject when non-empty.
	SampleRandom(ctx context.Context, subject string, count int) ([]domain.Question, error)
	// GetCanonicalAnswer returns the answer letter for a question, or
	// domain.ErrQuestionNotFound for unknown ids.
	GetCanonicalAnswer(ctx context.Context, questionID int64) (domain.Letter, error)
}

// AttemptStore persists scored answers. AppendAttempts must be atomic over
// the batch: either every row is durably recorded or none is.
type AttemptStore interface {
	AppendAttempts(ctx context.Context, batch []domain.Attempt) error
}

// LeaderboardInvalidator is notified after each successful submission so
// cached standings can be dropped. Optional; see SetLeaderboardInvalidator.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AssessmentService owns the session lifecycle, answer collection and the
// transactional scoring step.
type AssessmentService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	attempts    AttemptStore
	leaderboard LeaderboardInvalidator
	now         func() time.Time
	log         zerolog.Logger
}

func NewAssessmentService(sessions SessionRepository, questions QuestionRepository, attempts AttemptStore, log zerolog.Logger) *AssessmentService {
	return &AssessmentService{
		sessions:  sessions,
		questions: questions,
		attempts:  attempts,
		now:       time.Now,
		log:       log.With().Str("component", "assessment").Logger(),
	}
}

// NewAssessmentServiceWithClock is test-only for deterministic timestamps.
func NewAssessmentServiceWithClock(sessions SessionRepository, questions QuestionRepository, attempts AttemptStore, log zerolog.Logger, now func() time.Time) *AssessmentService {
	svc := NewAssessmentService(sessions, questions, attempts, log)
	svc.now = now
	return svc
}

// SetLeaderboardInvalidator wires an optional cache invalidation hook fired
// after every successful submission.
func (s *AssessmentService) SetLeaderboardInvalidator(inv LeaderboardInvalidator) {
	s.leaderboard = inv
}

// CreateSession starts a new quiz attempt with up to count questions, sampled
// without replacement in random order. Fewer available questions than
// requested is not an error; the view's Requested field carries the original
// ask. Creation is rejected while a prior session is still active.
func (s *AssessmentService) CreateSession(ctx context.Context, studentID, subject string, count int) (SessionView, error) {
	if studentID == "" {
		return SessionView{}, fmt.Errorf("student id is required")
	}
	if count <= 0 {
		return SessionView{}, fmt.Errorf("question count must be positive, got %d", count)
	}

	if existing, ok := s.sessions.Get(studentID); ok {
		if existing.currentStatus() == domain.SessionActive {
			return SessionView{}, fmt.Errorf("%w: session is still active, reset first", domain.ErrInvalidSessionState)
		}
	}

	questions, err := s.questions.SampleRandom(ctx, subject, count)
	if err != nil {
		return SessionView{}, fmt.Errorf("sample questions: %w", err)
	}
	if len(questions) == 0 {
		return SessionView{}, domain.ErrNoQuestionsAvailable
	}

	session := newSession(studentID, questions, count, s.now)
	s.sessions.Put(studentID, session)

	s.log.Debug().
		Str("student_id", studentID).
		Str("subject", subject).
		Int("requested", count).
		Int("selected", len(questions)).
		Msg("session created")

	return session.view(), nil
}

// SetAnswer records one choice in the learner's active session. Writes are
// idempotent and last-write-wins; nothing persists until submission.
func (s *AssessmentService) SetAnswer(ctx context.Context, studentID string, questionID int64, letter domain.Letter) error {
	session, ok := s.sessions.Get(studentID)
	if !ok {
		return fmt.Errorf("%w: no session for student", domain.ErrInvalidSessionState)
	}
	return session.setAnswer(questionID, letter)
}

// Submit finalizes the learner's session: validates completeness, scores every
// answer against the canonical answer fetched fresh from the repository, and
// writes all attempt rows as one atomic batch. Re-submitting a submitted
// session returns the memoized result without touching the store. On any
// failure the session stays active and nothing is persisted.
func (s *AssessmentService) Submit(ctx context.Context, studentID string) (domain.Result, error) {
	session, ok := s.sessions.Get(studentID)
	if !ok {
		return domain.Result{}, domain.ErrNoActiveSession
	}

	result, err := session.submit(func(order []int64, answers map[int64]domain.Letter) (domain.Result, error) {
		batch := make([]domain.Attempt, 0, len(order))
		correct := 0
		now := s.now()

		for _, qid := range order {
			canonical, err := s.questions.GetCanonicalAnswer(ctx, qid)
			if err != nil {
				return domain.Result{}, fmt.Errorf("canonical answer for question %d: %w", qid, err)
			}
			isCorrect := answers[qid] == canonical
			if isCorrect {
				correct++
			}
			batch = append(batch, domain.Attempt{
				StudentID:  studentID,
				QuestionID: qid,
				Correct:    isCorrect,
				Timestamp:  now,
			})
		}

		if err := s.attempts.AppendAttempts(ctx, batch); err != nil {
			return domain.Result{}, fmt.Errorf("persist attempts: %w", err)
		}
		return domain.NewResult(correct, len(order)), nil
	})
	if err != nil {
		return domain.Result{}, err
	}

	if s.leaderboard != nil {
		// Best effort: a stale cache entry expires on its own TTL.
		if err := s.leaderboard.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("leaderboard invalidation failed")
		}
	}

	s.log.Info().
		Str("student_id", studentID).
		Int("correct", result.Correct).
		Int("total", result.Total).
		Str("tier", string(result.Tier)).
		Msg("session submitted")

	return result, nil
}

// ResetSession discards the learner's session and any unsaved answers
// unconditionally. Resetting with no session is a no-op.
func (s *AssessmentService) ResetSession(ctx context.Context, studentID string) {
	session, ok := s.sessions.Get(studentID)
	if !ok {
		return
	}
	session.reset()
	s.sessions.Delete(studentID)
	s.log.Debug().Str("student_id", studentID).Msg("session reset")
}

// GetStatus reports the learner's current state without side effects.
func (s *AssessmentService) GetStatus(ctx context.Context, studentID string) StatusView {
	session, ok := s.sessions.Get(studentID)
	if !ok {
		return StatusView{Status: domain.SessionEmpty}
	}
	return session.statusView()
}

// GetSession returns the full view of the learner's session for transports
// that need to re-render questions, or false when none exists.
func (s *AssessmentService) GetSession(ctx context.Context, studentID string) (SessionView, bool) {
	session, ok := s.sessions.Get(studentID)
	if !ok {
		return SessionView{}, false
	}
	return session.view(), true
}
