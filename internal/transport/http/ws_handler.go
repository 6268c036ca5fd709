package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
)

// WSHandler serves the interactive quiz session over a websocket: one
// connection per learner, carrying start/answer/submit/reset/status traffic.
// Leaderboard reads stay on the REST side; nothing is pushed unsolicited.
type WSHandler struct {
	service      *app.AssessmentService
	defaultCount int
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, defaultCount int, log zerolog.Logger) *WSHandler {
	if defaultCount <= 0 {
		defaultCount = 5
	}
	return &WSHandler{
		service:      service,
		defaultCount: defaultCount,
		log:          log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

type answerPayload struct {
	QuestionID int64  `json:"questionId"`
	Letter     string `json:"letter"`
}

type answerAck struct {
	QuestionID int64         `json:"questionId"`
	Letter     domain.Letter `json:"letter"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the learner's session loop. Messages
// are handled one at a time on this goroutine, which also keeps writes
// serialized the way gorilla requires.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		http.Error(w, "missing studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	// Restore state for reconnecting clients.
	h.send(conn, "status", h.service.GetStatus(r.Context(), studentID))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid start payload")
				continue
			}
			count := payload.Count
			if count == 0 {
				count = h.defaultCount
			}
			view, err := h.service.CreateSession(r.Context(), studentID, payload.Subject, count)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "session", view)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			letter, err := domain.ParseLetter(payload.Letter)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if err := h.service.SetAnswer(r.Context(), studentID, payload.QuestionID, letter); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "answerAck", answerAck{QuestionID: payload.QuestionID, Letter: letter})

		case "submit":
			result, err := h.service.Submit(r.Context(), studentID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, "result", result)

		case "reset":
			h.service.ResetSession(r.Context(), studentID)
			h.send(conn, "status", h.service.GetStatus(r.Context(), studentID))

		case "status":
			h.send(conn, "status", h.service.GetStatus(r.Context(), studentID))

		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			h.log.Debug().Err(err).Msg("ws write failed")
		}
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, "error", errorPayload{Message: message})
}
