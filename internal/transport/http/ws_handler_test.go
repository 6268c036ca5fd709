package http

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
	"smartlearn-quiz-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	service := newWSTestService()
	wsHandler := NewWSHandler(service, 5, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?studentId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial status snapshot: empty.
	msgType, payload := readNext(conn, t, "status")
	if msgType != "status" || payload["status"] != "empty" {
		t.Fatalf("expected empty status, got %s %+v", msgType, payload)
	}

	// Start a two-question quiz.
	writeMsg(conn, t, "start", map[string]any{"subject": "", "count": 2})
	_, payload = readNext(conn, t, "session")
	questions, ok := payload["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("expected 2 questions in session payload, got %+v", payload)
	}

	// Answer both correctly (the fixture's canonical answer is always B).
	for _, raw := range questions {
		q := raw.(map[string]any)
		writeMsg(conn, t, "answer", map[string]any{
			"questionId": int64(q["id"].(float64)),
			"letter":     "b",
		})
		readNext(conn, t, "answerAck")
	}

	writeMsg(conn, t, "submit", nil)
	_, payload = readNext(conn, t, "result")
	if payload["correct"].(float64) != 2 || payload["tier"] != "perfect" {
		t.Fatalf("expected perfect 2/2 result, got %+v", payload)
	}

	// A second submit returns the same memoized result.
	writeMsg(conn, t, "submit", nil)
	_, payload = readNext(conn, t, "result")
	if payload["xp"].(float64) != 20 {
		t.Fatalf("expected memoized xp=20, got %+v", payload)
	}

	writeMsg(conn, t, "reset", nil)
	_, payload = readNext(conn, t, "status")
	if payload["status"] != "empty" {
		t.Fatalf("expected empty status after reset, got %+v", payload)
	}
}

func TestWebSocketRejectsInvalidLetter(t *testing.T) {
	service := newWSTestService()
	wsHandler := NewWSHandler(service, 5, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws?studentId=u1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "status")

	writeMsg(conn, t, "start", map[string]any{"count": 1})
	_, payload := readNext(conn, t, "session")
	q := payload["questions"].([]any)[0].(map[string]any)

	writeMsg(conn, t, "answer", map[string]any{
		"questionId": int64(q["id"].(float64)),
		"letter":     "E",
	})
	readNext(conn, t, "error")
}

func TestWebSocketRequiresStudentID(t *testing.T) {
	service := newWSTestService()
	wsHandler := NewWSHandler(service, 5, zerolog.Nop())
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeMsg(conn *websocket.Conn, t *testing.T, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": json.RawMessage(raw)}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func newWSTestService() *app.AssessmentService {
	questions := []domain.Question{
		{Text: "ws q1", OptionA: "w", OptionB: "r", OptionC: "w", OptionD: "w", Answer: domain.LetterB, Subject: "Physics"},
		{Text: "ws q2", OptionA: "w", OptionB: "r", OptionC: "w", OptionD: "w", Answer: domain.LetterB, Subject: "Physics"},
	}
	bank := memory.NewQuestionBankWithRand(questions, rand.New(rand.NewSource(11)))
	return app.NewAssessmentService(memory.NewSessionStore(), bank, memory.NewAttemptLog(), zerolog.Nop())
}
