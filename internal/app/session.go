package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"smartlearn-quiz-service/internal/domain"
)

// QuestionPrompt is the learner-facing slice of a question: everything except
// the canonical answer.
type QuestionPrompt struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"optionA"`
	OptionB string `json:"optionB"`
	OptionC string `json:"optionC"`
	OptionD string `json:"optionD"`
}

// SessionView is the snapshot handed to transports when a session is created
// or inspected. Requested carries the originally asked-for count so callers
// can tell when the bank had fewer questions.
type SessionView struct {
	SessionID string                  `json:"sessionId"`
	StudentID string                  `json:"studentId"`
	Status    domain.SessionStatus    `json:"status"`
	CreatedAt time.Time               `json:"createdAt"`
	Requested int                     `json:"requested"`
	Questions []QuestionPrompt        `json:"questions"`
	Answers   map[int64]domain.Letter `json:"answers"`
}

// StatusView is the side-effect-free answer to "where is this learner now".
type StatusView struct {
	Status   domain.SessionStatus `json:"status"`
	Total    int                  `json:"total"`
	Answered int                  `json:"answered"`
	Result   *domain.Result       `json:"result,omitempty"`
}

// Session is one learner's quiz attempt. The question order is fixed at
// creation; only answers mutate while active. The mutex is the per-learner
// serialization point: every operation on the same learner, including the
// whole scoring step, runs under it.
type Session struct {
	id        uuid.UUID
	studentID string
	createdAt time.Time
	requested int

	mu      sync.Mutex
	status  domain.SessionStatus
	order   []int64
	prompts []QuestionPrompt
	answers map[int64]domain.Letter
	result  *domain.Result
}

func newSession(studentID string, questions []domain.Question, requested int, now func() time.Time) *Session {
	order := make([]int64, 0, len(questions))
	prompts := make([]QuestionPrompt, 0, len(questions))
	for _, q := range questions {
		order = append(order, q.ID)
		prompts = append(prompts, QuestionPrompt{
			ID:      q.ID,
			Text:    q.Text,
			OptionA: q.OptionA,
			OptionB: q.OptionB,
			OptionC: q.OptionC,
			OptionD: q.OptionD,
		})
	}
	return &Session{
		id:        uuid.New(),
		studentID: studentID,
		createdAt: now(),
		requested: requested,
		status:    domain.SessionActive,
		order:     order,
		prompts:   prompts,
		answers:   make(map[int64]domain.Letter, len(questions)),
	}
}

// NewSession is exported for infrastructure layers and tests that need to
// seed sessions directly.
func NewSession(studentID string, questions []domain.Question, requested int) *Session {
	return newSession(studentID, questions, requested, time.Now)
}

func (s *Session) setAnswer(questionID int64, letter domain.Letter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.SessionActive {
		return domain.ErrInvalidSessionState
	}
	if !s.containsLocked(questionID) {
		return domain.ErrInvalidSessionState
	}
	// Last write wins; clearing removes the entry entirely.
	if letter == domain.LetterUnanswered {
		delete(s.answers, questionID)
		return nil
	}
	s.answers[questionID] = letter
	return nil
}

// submit drives the scoring step. The score callback runs with the session
// lock held so answers cannot change mid-scoring and a concurrent submit
// observes either the active state or the memoized result, never a half-done
// one. On callback failure the session stays active and nothing is memoized.
func (s *Session) submit(score func(order []int64, answers map[int64]domain.Letter) (domain.Result, error)) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.SessionSubmitted:
		return *s.result, nil
	case domain.SessionActive:
	default:
		return domain.Result{}, domain.ErrNoActiveSession
	}

	for _, qid := range s.order {
		if s.answers[qid] == domain.LetterUnanswered {
			return domain.Result{}, domain.ErrIncompleteSubmission
		}
	}

	result, err := score(s.order, s.answers)
	if err != nil {
		return domain.Result{}, err
	}
	s.result = &result
	s.status = domain.SessionSubmitted
	return result, nil
}

// reset marks the session dead regardless of state. Callers drop it from the
// store afterwards; a racing operation that already holds a pointer sees the
// empty status and fails cleanly.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = domain.SessionEmpty
	s.result = nil
}

func (s *Session) currentStatus() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) view() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int64]domain.Letter, len(s.answers))
	for qid, letter := range s.answers {
		answers[qid] = letter
	}
	prompts := make([]QuestionPrompt, len(s.prompts))
	copy(prompts, s.prompts)

	return SessionView{
		SessionID: s.id.String(),
		StudentID: s.studentID,
		Status:    s.status,
		CreatedAt: s.createdAt,
		Requested: s.requested,
		Questions: prompts,
		Answers:   answers,
	}
}

func (s *Session) statusView() StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatusView{
		Status:   s.status,
		Total:    len(s.order),
		Answered: len(s.answers),
		Result:   s.result,
	}
}

func (s *Session) containsLocked(questionID int64) bool {
	for _, qid := range s.order {
		if qid == questionID {
			return true
		}
	}
	return false
}
