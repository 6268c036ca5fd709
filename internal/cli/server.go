package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/config"
	"smartlearn-quiz-service/internal/domain"
	"smartlearn-quiz-service/internal/infra/memory"
	pginfra "smartlearn-quiz-service/internal/infra/postgres"
	redisinfra "smartlearn-quiz-service/internal/infra/redis"
	"smartlearn-quiz-service/internal/logger"
	transport "smartlearn-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Demo mode without postgres runs on the in-memory fixtures.
	var (
		questions app.QuestionRepository
		authoring transport.QuestionAuthor
		attempts  interface {
			app.AttemptStore
			app.AttemptReader
		}
		users app.UserRepository
	)
	if pool != nil {
		store := pginfra.NewQuestionStore(pool)
		questions, authoring = store, store
		attempts = pginfra.NewAttemptStore(pool)
		users = pginfra.NewUserStore(pool)
	} else {
		bank := memory.NewQuestionBank(sampleQuestions())
		questions, authoring = bank, bank
		attempts = memory.NewAttemptLog()
		users = memory.NewUserStore()
		log.Warn().Msg("postgres not configured, running on in-memory stores")
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	service := app.NewAssessmentService(sessions, questions, attempts, log)
	aggregator := app.NewLeaderboardAggregator(attempts)

	var leaderboard transport.LeaderboardProvider = aggregator
	if redisClient != nil {
		cache := redisinfra.NewLeaderboardCache(redisClient, aggregator, leaderboardTTL)
		service.SetLeaderboardInvalidator(cache)
		leaderboard = cache
	}

	authService := app.NewAuthService(users)

	wsHandler := transport.NewWSHandler(service, cfg.Quiz.DefaultCount, log)
	apiHandler := transport.NewAPIHandler(leaderboard, aggregator, authoring, authService, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting assessment service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal bank for demo mode; production runs
// against the postgres-backed store.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:    "Which unit measures electrical resistance?",
			OptionA: "Ohm", OptionB: "Volt", OptionC: "Ampere", OptionD: "Watt",
			Answer: domain.LetterA, Subject: "Physics", Difficulty: "Easy", Type: "MCQ",
		},
		{
			Text:    "What is the chemical symbol for sodium?",
			OptionA: "S", OptionB: "Na", OptionC: "So", OptionD: "N",
			Answer: domain.LetterB, Subject: "Chemistry", Difficulty: "Easy", Type: "MCQ",
		},
		{
			Text:    "Which organelle is the site of cellular respiration?",
			OptionA: "Nucleus", OptionB: "Ribosome", OptionC: "Mitochondrion", OptionD: "Golgi body",
			Answer: domain.LetterC, Subject: "Biology", Difficulty: "Easy", Type: "MCQ",
		},
		{
			Text:    "Which law relates force, mass and acceleration?",
			OptionA: "Newton's first law", OptionB: "Newton's second law", OptionC: "Newton's third law", OptionD: "Hooke's law",
			Answer: domain.LetterB, Subject: "Physics", Difficulty: "Medium", Type: "MCQ",
		},
		{
			Text:    "What is the pH of a neutral solution at 25°C?",
			OptionA: "0", OptionB: "14", OptionC: "1", OptionD: "7",
			Answer: domain.LetterD, Subject: "Chemistry", Difficulty: "Easy", Type: "MCQ",
		},
	}
}
