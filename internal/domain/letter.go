package domain

import (
	"fmt"
	"strings"
)

// Letter is a closed enumeration of the four answer choices. The zero value
// means unanswered.
type Letter string

const (
	LetterUnanswered Letter = ""
	LetterA          Letter = "A"
	LetterB          Letter = "B"
	LetterC          Letter = "C"
	LetterD          Letter = "D"
)

// ParseLetter normalizes free-form input to a Letter. Empty input clears the
// answer; anything outside A-D is rejected.
func ParseLetter(raw string) (Letter, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	switch Letter(trimmed) {
	case LetterUnanswered, LetterA, LetterB, LetterC, LetterD:
		return Letter(trimmed), nil
	default:
		return LetterUnanswered, fmt.Errorf("%w: %q", ErrInvalidLetter, raw)
	}
}

// CanonicalLetter extracts the answer letter from a stored canonical answer,
// which may be a bare letter or a longer string whose first character is the
// letter. Comparison against learner answers is case-insensitive.
func CanonicalLetter(raw string) (Letter, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LetterUnanswered, fmt.Errorf("%w: empty canonical answer", ErrInvalidLetter)
	}
	return ParseLetter(trimmed[:1])
}
