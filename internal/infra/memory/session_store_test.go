package memory

import (
	"testing"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected no session initially")
	}

	session := app.NewSession("u1", []domain.Question{{ID: 1, Text: "q"}}, 1)
	store.Put("u1", session)
	if got, ok := store.Get("u1"); !ok || got != session {
		t.Fatalf("expected stored session back")
	}

	store.Delete("u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}
