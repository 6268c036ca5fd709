package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smartlearn-quiz-service/internal/domain"
)

// AttemptStore persists scored answers in postgres. Each submission's batch
// is written inside one transaction so a failure mid-write leaves no partial
// attempts behind.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) AppendAttempts(ctx context.Context, batch []domain.Attempt) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin attempt batch: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, a := range batch {
		b.Queue(
			`INSERT INTO attempts (student_id, question_id, is_correct, created_at) VALUES ($1, $2, $3, $4)`,
			a.StudentID, a.QuestionID, a.Correct, a.Timestamp,
		)
	}
	results := tx.SendBatch(ctx, b)
	for range batch {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert attempt: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close attempt batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit attempt batch: %w", err)
	}
	return nil
}

func (s *AttemptStore) ReadAll(ctx context.Context) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT student_id, question_id, is_correct, created_at FROM attempts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *AttemptStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT student_id, question_id, is_correct, created_at FROM attempts WHERE student_id = $1 ORDER BY id`,
		studentID)
	if err != nil {
		return nil, fmt.Errorf("read student attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func scanAttempts(rows pgx.Rows) ([]domain.Attempt, error) {
	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.StudentID, &a.QuestionID, &a.Correct, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
