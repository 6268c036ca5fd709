package domain

import (
	"math"
	"time"
)

// Question is an immutable reference entity authored by teachers.
// The scoring core never mutates questions; it only samples them and
// reads canonical answers.
type Question struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	OptionA    string `json:"optionA"`
	OptionB    string `json:"optionB"`
	OptionC    string `json:"optionC"`
	OptionD    string `json:"optionD"`
	Answer     Letter `json:"answer,omitempty"`
	Subject    string `json:"subject"`
	Chapter    string `json:"chapter,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Attempt is one persisted, append-only scoring fact. Attempts are never
// updated or deleted; the leaderboard is derived from the full history.
type Attempt struct {
	StudentID  string    `json:"studentId"`
	QuestionID int64     `json:"questionId"`
	Correct    bool      `json:"correct"`
	Timestamp  time.Time `json:"timestamp"`
}

// SessionStatus enumerates the per-learner quiz attempt states.
type SessionStatus string

const (
	SessionEmpty     SessionStatus = "empty"
	SessionActive    SessionStatus = "active"
	SessionSubmitted SessionStatus = "submitted"
)

// Tier is the qualitative feedback bucket for a submission.
type Tier string

const (
	TierPerfect     Tier = "perfect"
	TierNearPerfect Tier = "near_perfect"
	TierGood        Tier = "good"
	TierEncourage   Tier = "encourage"
)

// TierFor buckets a correct/total ratio. Near-perfect requires more than one
// question so a single miss on a one-question quiz is not celebrated.
func TierFor(correct, total int) Tier {
	switch {
	case correct == total:
		return TierPerfect
	case total > 1 && correct >= total-1:
		return TierNearPerfect
	case 2*correct >= total:
		return TierGood
	default:
		return TierEncourage
	}
}

// XPPerCorrect is the fixed experience award per correct answer.
const XPPerCorrect = 10

// AccuracyPercent returns 100*correct/attempted rounded to two decimals.
// Attempted must be positive.
func AccuracyPercent(correct, attempted int) float64 {
	return math.Round(10000*float64(correct)/float64(attempted)) / 100
}

// Result summarizes one scored submission. It is memoized against the session
// so repeated submits return identical values.
type Result struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
	XP       int     `json:"xp"`
	Tier     Tier    `json:"tier"`
}

// NewResult derives the full summary from raw counts.
func NewResult(correct, total int) Result {
	return Result{
		Correct:  correct,
		Total:    total,
		Accuracy: AccuracyPercent(correct, total),
		XP:       correct * XPPerCorrect,
		Tier:     TierFor(correct, total),
	}
}

// LeaderboardRow is a derived standing, recomputed from attempt history.
type LeaderboardRow struct {
	StudentID string  `json:"studentId"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	XP        int     `json:"xp"`
	Accuracy  float64 `json:"accuracy"`
	Rank      int     `json:"rank"`
}

// StudentSummary is the per-learner dashboard view over all attempts.
type StudentSummary struct {
	StudentID string  `json:"studentId"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// Role distinguishes learners from question authors.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User is an account record. PasswordHash is a bcrypt digest and never
// leaves the service.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
