package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smartlearn-quiz-service/internal/domain"
)

// QuestionStore is the pgx-backed question repository. Random sampling is an
// explicit candidate-id shuffle in Go rather than ORDER BY RANDOM(), so the
// randomness source is controllable.
type QuestionStore struct {
	pool *pgxpool.Pool

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return NewQuestionStoreWithRand(pool, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionStoreWithRand injects the sampling rand source for tests.
func NewQuestionStoreWithRand(pool *pgxpool.Pool, rnd *rand.Rand) *QuestionStore {
	return &QuestionStore{pool: pool, rnd: rnd}
}

func (s *QuestionStore) SampleRandom(ctx context.Context, subject string, count int) ([]domain.Question, error) {
	ids, err := s.candidateIDs(ctx, subject)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.mu.Unlock()

	if len(ids) > count {
		ids = ids[:count]
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question, option_a, option_b, option_c, option_d, answer, subject, chapter, topic, difficulty, type
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load sampled questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]domain.Question, len(ids))
	for rows.Next() {
		var q domain.Question
		var answer string
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&answer, &q.Subject, &q.Chapter, &q.Topic, &q.Difficulty, &q.Type); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Answer = domain.Letter(answer)
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	// Preserve the shuffled order, not the database's.
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuestionStore) candidateIDs(ctx context.Context, subject string) ([]int64, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if subject != "" {
		rows, err = s.pool.Query(ctx, `SELECT id FROM questions WHERE subject = $1`, subject)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT id FROM questions`)
	}
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *QuestionStore) GetCanonicalAnswer(ctx context.Context, questionID int64) (domain.Letter, error) {
	var answer string
	err := s.pool.QueryRow(ctx, `SELECT answer FROM questions WHERE id = $1`, questionID).Scan(&answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LetterUnanswered, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.LetterUnanswered, fmt.Errorf("load canonical answer: %w", err)
	}
	return domain.CanonicalLetter(answer)
}

// Add inserts a question with insert-or-ignore semantics on the unique
// question text.
func (s *QuestionStore) Add(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (question, option_a, option_b, option_c, option_d, answer, subject, chapter, topic, difficulty, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (question) DO NOTHING
		 RETURNING id`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.Answer),
		q.Subject, q.Chapter, q.Topic, q.Difficulty, q.Type,
	).Scan(&q.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrDuplicateQuestion
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}
