package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smartlearn-quiz-service/internal/app"
	"smartlearn-quiz-service/internal/config"
	"smartlearn-quiz-service/internal/domain"
	pginfra "smartlearn-quiz-service/internal/infra/postgres"
	"smartlearn-quiz-service/internal/logger"
)

// NewSeedCmd loads demo users and sample questions into postgres. Safe to run
// repeatedly: duplicates are skipped.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo users and sample questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			return runSeed(cmd.Context(), cfg, log)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	auth := app.NewAuthService(pginfra.NewUserStore(pool))
	demoUsers := []struct {
		username string
		password string
		role     domain.Role
	}{
		{"student1", "1234", domain.RoleStudent},
		{"teacher1", "admin", domain.RoleTeacher},
	}
	for _, u := range demoUsers {
		if _, err := auth.Register(ctx, u.username, u.password, u.role); err != nil {
			if errors.Is(err, domain.ErrUsernameTaken) {
				continue
			}
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
		log.Info().Str("username", u.username).Str("role", string(u.role)).Msg("user seeded")
	}

	store := pginfra.NewQuestionStore(pool)
	seeded := 0
	for _, q := range sampleQuestions() {
		if _, err := store.Add(ctx, q); err != nil {
			if errors.Is(err, domain.ErrDuplicateQuestion) {
				continue
			}
			return fmt.Errorf("seed question: %w", err)
		}
		seeded++
	}
	log.Info().Int("questions", seeded).Msg("seeding complete")
	return nil
}
