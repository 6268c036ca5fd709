package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("u1", []domain.Question{{ID: 1, Text: "q"}}, 1)
	store.Put("u1", session)
	if !mr.Exists("assessment:session:u1") {
		t.Fatalf("expected liveness key to be set")
	}
	if got, ok := store.Get("u1"); !ok || got != session {
		t.Fatalf("expected stored session back")
	}

	store.Delete("u1")
	if mr.Exists("assessment:session:u1") {
		t.Fatalf("expected liveness key to be removed")
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}
