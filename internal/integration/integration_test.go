package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/domain"
	pgstore "smartlearn-quiz-service/internal/infra/postgres"
	pgmigrations "smartlearn-quiz-service/internal/infra/postgres/migrations"
	infraredis "smartlearn-quiz-service/internal/infra/redis"
)

func TestQuizLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	questions := pgstore.NewQuestionStore(pool)
	attempts := pgstore.NewAttemptStore(pool)
	answerKey := seedQuestions(t, ctx, questions)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	service := app.NewAssessmentService(sessions, questions, attempts, zerolog.Nop())
	aggregator := app.NewLeaderboardAggregator(attempts)
	leaderboard := infraredis.NewLeaderboardCache(redisClient, aggregator, time.Minute)
	service.SetLeaderboardInvalidator(leaderboard)

	// First learner answers everything correctly.
	view, err := service.CreateSession(ctx, "alice", "Physics", 2)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(view.Questions))
	}
	for _, q := range view.Questions {
		if err := service.SetAnswer(ctx, "alice", q.ID, answerKey[q.Text]); err != nil {
			t.Fatalf("set answer: %v", err)
		}
	}
	result, err := service.Submit(ctx, "alice")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct != 2 || result.XP != 20 || result.Tier != domain.TierPerfect {
		t.Fatalf("expected perfect 2/2, got %+v", result)
	}

	var rows int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM attempts WHERE student_id = $1`, "alice").Scan(&rows); err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 attempt rows, got %d", rows)
	}

	// Second learner misses one, so alice must stay on top.
	view, err = service.CreateSession(ctx, "bob", "Physics", 2)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i, q := range view.Questions {
		letter := answerKey[q.Text]
		if i == 0 {
			letter = wrongLetter(letter)
		}
		if err := service.SetAnswer(ctx, "bob", q.ID, letter); err != nil {
			t.Fatalf("set answer: %v", err)
		}
	}
	if _, err := service.Submit(ctx, "bob"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	standings, err := leaderboard.Aggregate(ctx)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("expected 2 leaderboard rows, got %d", len(standings))
	}
	if standings[0].StudentID != "alice" || standings[0].Rank != 1 || standings[0].XP != 20 {
		t.Fatalf("expected alice leading, got %+v", standings[0])
	}
	if standings[1].StudentID != "bob" || standings[1].XP != 10 {
		t.Fatalf("expected bob second with 10 xp, got %+v", standings[1])
	}
}

func seedQuestions(t *testing.T, ctx context.Context, store *pgstore.QuestionStore) map[string]domain.Letter {
	t.Helper()
	seed := []domain.Question{
		{Text: "What is the SI unit of force?", OptionA: "Joule", OptionB: "Newton", OptionC: "Pascal", OptionD: "Watt", Answer: domain.LetterB, Subject: "Physics"},
		{Text: "What is the speed of light in vacuum?", OptionA: "3x10^8 m/s", OptionB: "3x10^6 m/s", OptionC: "3x10^5 m/s", OptionD: "3x10^7 m/s", Answer: domain.LetterA, Subject: "Physics"},
	}
	key := make(map[string]domain.Letter, len(seed))
	for _, q := range seed {
		if _, err := store.Add(ctx, q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
		key[q.Text] = q.Answer
	}
	return key
}

func wrongLetter(canonical domain.Letter) domain.Letter {
	if canonical == domain.LetterA {
		return domain.LetterB
	}
	return domain.LetterA
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
