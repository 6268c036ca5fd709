package app

import (
	"context"
	"fmt"
	"sort"

	"smartlearn-quiz-service/internal/domain"
)

// AttemptReader is the read side of attempt history, consumed only by
// aggregation.
type AttemptReader interface {
	ReadAll(ctx context.Context) ([]domain.Attempt, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error)
}

// LeaderboardAggregator derives ranked standings from the full attempt
// history. It takes no locks on sessions and returns a point-in-time
// snapshot; submissions racing with a read may or may not be reflected.
type LeaderboardAggregator struct {
	attempts AttemptReader
}

func NewLeaderboardAggregator(attempts AttemptReader) *LeaderboardAggregator {
	return &LeaderboardAggregator{attempts: attempts}
}

// Aggregate groups attempts by student, computes xp and accuracy, and ranks
// rows by xp descending, then accuracy descending, then student id ascending.
// The tertiary key keeps ordering deterministic for equal scores.
func (a *LeaderboardAggregator) Aggregate(ctx context.Context) ([]domain.LeaderboardRow, error) {
	attempts, err := a.attempts.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read attempts: %w", err)
	}

	byStudent := make(map[string]*domain.LeaderboardRow)
	for _, attempt := range attempts {
		row, ok := byStudent[attempt.StudentID]
		if !ok {
			row = &domain.LeaderboardRow{StudentID: attempt.StudentID}
			byStudent[attempt.StudentID] = row
		}
		row.Attempted++
		if attempt.Correct {
			row.Correct++
		}
	}

	rows := make([]domain.LeaderboardRow, 0, len(byStudent))
	for _, row := range byStudent {
		row.XP = row.Correct * domain.XPPerCorrect
		row.Accuracy = domain.AccuracyPercent(row.Correct, row.Attempted)
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].XP != rows[j].XP {
			return rows[i].XP > rows[j].XP
		}
		if rows[i].Accuracy != rows[j].Accuracy {
			return rows[i].Accuracy > rows[j].Accuracy
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// StudentSummary computes the dashboard figures for one learner. A learner
// with no attempts gets a zero summary, not an error.
func (a *LeaderboardAggregator) StudentSummary(ctx context.Context, studentID string) (domain.StudentSummary, error) {
	attempts, err := a.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return domain.StudentSummary{}, fmt.Errorf("list attempts: %w", err)
	}

	summary := domain.StudentSummary{StudentID: studentID}
	for _, attempt := range attempts {
		summary.Attempted++
		if attempt.Correct {
			summary.Correct++
		}
	}
	if summary.Attempted > 0 {
		summary.Accuracy = domain.AccuracyPercent(summary.Correct, summary.Attempted)
	}
	return summary, nil
}
