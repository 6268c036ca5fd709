package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"smartlearn-quiz-service/internal/domain"
)

// QuestionBank is an in-memory question repository used by tests and demo
// mode. Sampling is an explicit shuffle-then-take over the filtered set; the
// rand source is injectable so tests get reproducible orders.
type QuestionBank struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	questions []domain.Question
	byText    map[string]struct{}
	nextID    int64
}

func NewQuestionBank(questions []domain.Question) *QuestionBank {
	return NewQuestionBankWithRand(questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionBankWithRand seeds the bank with a deterministic rand source.
// Questions without ids are assigned sequential ones.
func NewQuestionBankWithRand(questions []domain.Question, rnd *rand.Rand) *QuestionBank {
	b := &QuestionBank{
		rnd:    rnd,
		byText: make(map[string]struct{}, len(questions)),
	}
	for _, q := range questions {
		if q.ID == 0 {
			b.nextID++
			q.ID = b.nextID
		} else if q.ID > b.nextID {
			b.nextID = q.ID
		}
		b.questions = append(b.questions, q)
		b.byText[q.Text] = struct{}{}
	}
	return b
}

func (b *QuestionBank) SampleRandom(_ context.Context, subject string, count int) ([]domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	candidates := make([]domain.Question, 0, len(b.questions))
	for _, q := range b.questions {
		if subject == "" || q.Subject == subject {
			candidates = append(candidates, q)
		}
	}

	b.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

func (b *QuestionBank) GetCanonicalAnswer(_ context.Context, questionID int64) (domain.Letter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range b.questions {
		if q.ID == questionID {
			return domain.CanonicalLetter(string(q.Answer))
		}
	}
	return domain.LetterUnanswered, domain.ErrQuestionNotFound
}

// Add inserts a question, rejecting duplicate text the way the persistent
// store's unique constraint would.
func (b *QuestionBank) Add(_ context.Context, q domain.Question) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byText[q.Text]; exists {
		return domain.Question{}, domain.ErrDuplicateQuestion
	}
	b.nextID++
	q.ID = b.nextID
	b.questions = append(b.questions, q)
	b.byText[q.Text] = struct{}{}
	return q, nil
}
