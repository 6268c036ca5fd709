package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
)

// LeaderboardProvider is satisfied by the plain aggregator or its Redis
// caching decorator.
type LeaderboardProvider interface {
	Aggregate(ctx context.Context) ([]domain.LeaderboardRow, error)
}

// QuestionAuthor is the authoring slice of the question repository.
type QuestionAuthor interface {
	Add(ctx context.Context, q domain.Question) (domain.Question, error)
}

// APIHandler exposes the pull-based REST surface: leaderboard, dashboard,
// question authoring and auth.
type APIHandler struct {
	leaderboard LeaderboardProvider
	summaries   *app.LeaderboardAggregator
	questions   QuestionAuthor
	auth        *app.AuthService
	log         zerolog.Logger
}

func NewAPIHandler(leaderboard LeaderboardProvider, summaries *app.LeaderboardAggregator, questions QuestionAuthor, auth *app.AuthService, log zerolog.Logger) *APIHandler {
	return &APIHandler{
		leaderboard: leaderboard,
		summaries:   summaries,
		questions:   questions,
		auth:        auth,
		log:         log.With().Str("component", "api").Logger(),
	}
}

// Register mounts all REST routes on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/dashboard", h.handleDashboard)
	mux.HandleFunc("/questions", h.handleAddQuestion)
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
}

func (h *APIHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, err := h.leaderboard.Aggregate(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard aggregation failed")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []domain.LeaderboardRow{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *APIHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		http.Error(w, "missing studentId", http.StatusBadRequest)
		return
	}
	summary, err := h.summaries.StudentSummary(r.Context(), studentID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("dashboard summary failed")
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type addQuestionRequest struct {
	Text       string `json:"text"`
	OptionA    string `json:"optionA"`
	OptionB    string `json:"optionB"`
	OptionC    string `json:"optionC"`
	OptionD    string `json:"optionD"`
	Answer     string `json:"answer"`
	Subject    string `json:"subject"`
	Chapter    string `json:"chapter"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

func (h *APIHandler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req addQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Text == "" || req.OptionA == "" || req.OptionB == "" || req.OptionC == "" || req.OptionD == "" {
		http.Error(w, "question text and all four options are required", http.StatusBadRequest)
		return
	}
	answer, err := domain.ParseLetter(req.Answer)
	if err != nil || answer == domain.LetterUnanswered {
		http.Error(w, "answer must be one of A, B, C, D", http.StatusBadRequest)
		return
	}

	question, err := h.questions.Add(r.Context(), domain.Question{
		Text:       req.Text,
		OptionA:    req.OptionA,
		OptionB:    req.OptionB,
		OptionC:    req.OptionC,
		OptionD:    req.OptionD,
		Answer:     answer,
		Subject:    req.Subject,
		Chapter:    req.Chapter,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Type:       req.Type,
	})
	if errors.Is(err, domain.ErrDuplicateQuestion) {
		http.Error(w, "question already exists", http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("add question failed")
		http.Error(w, "could not store question", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, question)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (h *APIHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleStudent
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, role)
	if errors.Is(err, domain.ErrUsernameTaken) {
		http.Error(w, "username already exists", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Debug().Err(err).Msg("response write failed")
	}
}
