package study

import (
	"context"
	"fmt"
	"time"

	"github.com/fkobayashi/studyagent/internal/spaced"
)

// Ledger maintains the per (user, topic) performance aggregates that drive
// spaced-repetition scheduling.
type Ledger struct {
	records PerformanceStore
	now     func() time.Time
}

// NewLedger creates a Ledger backed by the given store.
func NewLedger(records PerformanceStore) *Ledger {
	return &Ledger{
		records: records,
		now:     time.Now,
	}
}

// RecordOutcome applies a completed session's outcome to the (user, topic)
// aggregate: counters, running average, last-studied, the next interval from
// the review policy, next-due, and the advisory retention score. The whole
// update runs as one atomic read-modify-write in the store.
func (l *Ledger) RecordOutcome(ctx context.Context, userID, topicID int64, sessionScore float64, questions, correct int, answeredAt time.Time) (*PerformanceRecord, error) {
	record, err := l.records.Apply(ctx, userID, topicID, l.OutcomeMutation(sessionScore, questions, correct, answeredAt))
	if err != nil {
		return nil, fmt.Errorf("apply outcome for user %d topic %d: %w", userID, topicID, err)
	}
	return record, nil
}

// OutcomeMutation returns the mutation a completed session applies to its
// performance record. It is exposed so that a store can run the session
// completion and the ledger update inside one transaction.
func (l *Ledger) OutcomeMutation(sessionScore float64, questions, correct int, answeredAt time.Time) func(record *PerformanceRecord) error {
	return func(record *PerformanceRecord) error {
		prior := record.IntervalDays
		if prior < spaced.InitialIntervalDays {
			prior = spaced.InitialIntervalDays
		}

		record.TotalSessions++
		record.TotalQuestions += questions
		record.TotalCorrect += correct
		record.AverageScore = (record.AverageScore*float64(record.TotalSessions-1) + sessionScore) / float64(record.TotalSessions)

		interval := spaced.NextInterval(sessionScore, prior)
		record.IntervalDays = interval

		studiedAt := answeredAt
		record.LastStudiedAt = &studiedAt
		dueAt := spaced.NextDue(answeredAt, interval)
		record.NextDueAt = &dueAt
		record.RetentionScore = spaced.RetentionScore(record.AverageScore, 0)

		return nil
	}
}

// DueRecords returns all records across all users whose next review time has
// passed as of asOf, oldest-overdue first.
func (l *Ledger) DueRecords(ctx context.Context, asOf time.Time) ([]PerformanceRecord, error) {
	records, err := l.records.DueRecords(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("load due records: %w", err)
	}
	return records, nil
}

// TopicPerformance is a read-only projection of a performance record joined
// with its topic title, for statistics display.
type TopicPerformance struct {
	TopicID        int64
	TopicTitle     string
	TotalSessions  int
	TotalCorrect   int
	TotalQuestions int
	AverageScore   float64
	RetentionScore float64
	LastStudiedAt  *time.Time
	NextDueAt      *time.Time
	IntervalDays   int
}

// Summary returns the user's performance records with the current, decayed
// retention estimate. Titles are resolved by the caller that owns a TopicStore.
func (l *Ledger) Summary(ctx context.Context, userID int64) ([]PerformanceRecord, error) {
	records, err := l.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load performance records for user %d: %w", userID, err)
	}

	now := l.now()
	for i := range records {
		if records[i].LastStudiedAt != nil {
			records[i].RetentionScore = spaced.RetentionScore(records[i].AverageScore, now.Sub(*records[i].LastStudiedAt))
		}
	}
	return records, nil
}
