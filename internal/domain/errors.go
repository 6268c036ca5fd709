package domain

import "errors"

var (
	// ErrInvalidSessionState is returned when an operation is not valid in the
	// session's current state. Nothing is mutated.
	ErrInvalidSessionState = errors.New("operation not valid in current session state")
	// ErrNoActiveSession is returned by submit when no session exists.
	ErrNoActiveSession = errors.New("no active session")
	// ErrIncompleteSubmission is returned when a session still has unanswered
	// questions. The session stays active and nothing is persisted.
	ErrIncompleteSubmission = errors.New("session has unanswered questions")
	// ErrNoQuestionsAvailable is returned when a session cannot be created
	// because the filter matches no questions at all.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrQuestionNotFound indicates a question id is unknown to the repository.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidLetter indicates an answer outside the A-D choice set.
	ErrInvalidLetter = errors.New("invalid answer letter")
	// ErrDuplicateQuestion indicates authoring rejected a question whose text
	// already exists.
	ErrDuplicateQuestion = errors.New("question text already exists")
	// ErrUsernameTaken indicates registration with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound indicates an unknown account.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
