package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/database"
	"github.com/fkobayashi/studyagent/internal/study"
)

// PerformanceRepository implements study.PerformanceStore using MySQL.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository creates a new PerformanceRepository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Get returns the record for the (user, topic) pair.
func (r *PerformanceRepository) Get(ctx context.Context, userID, topicID int64) (*study.PerformanceRecord, error) {
	var record study.PerformanceRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM performance_records WHERE user_id = ? AND topic_id = ?",
		userID, topicID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &study.NotFoundError{Entity: "performance record", ID: topicID}
	}
	if err != nil {
		return nil, fmt.Errorf("load performance record (user %d, topic %d): %w", userID, topicID, err)
	}
	return &record, nil
}

// Apply runs fn against the (user, topic) record inside one transaction. The
// row is locked for the duration, so concurrent applications for the same
// pair serialize; a missing record is created first with zeroed counters.
func (r *PerformanceRepository) Apply(ctx context.Context, userID, topicID int64, fn func(record *study.PerformanceRecord) error) (*study.PerformanceRecord, error) {
	var record *study.PerformanceRecord
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		rec, err := performanceForUpdate(ctx, tx, userID, topicID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		if err := savePerformance(ctx, tx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DueRecords returns all records whose next review time has passed as of
// asOf, ordered oldest-overdue first to bound staleness under load.
func (r *PerformanceRepository) DueRecords(ctx context.Context, asOf time.Time) ([]study.PerformanceRecord, error) {
	var records []study.PerformanceRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM performance_records WHERE next_due_at IS NOT NULL AND next_due_at <= ? ORDER BY next_due_at ASC",
		asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("load due performance records: %w", err)
	}
	return records, nil
}

// ListByUser returns all of a user's records.
func (r *PerformanceRepository) ListByUser(ctx context.Context, userID int64) ([]study.PerformanceRecord, error) {
	var records []study.PerformanceRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM performance_records WHERE user_id = ? ORDER BY topic_id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load performance records for user %d: %w", userID, err)
	}
	return records, nil
}

// performanceForUpdate loads the (user, topic) record with a row lock,
// inserting a zeroed record first when none exists.
func performanceForUpdate(ctx context.Context, tx *sqlx.Tx, userID, topicID int64) (*study.PerformanceRecord, error) {
	var record study.PerformanceRecord
	err := tx.GetContext(ctx, &record,
		"SELECT * FROM performance_records WHERE user_id = ? AND topic_id = ? FOR UPDATE",
		userID, topicID,
	)
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock performance record (user %d, topic %d): %w", userID, topicID, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO performance_records
			(user_id, topic_id, total_sessions, total_correct, total_questions, average_score, interval_days, retention_score)
		VALUES (?, ?, 0, 0, 0, 0, 0, 0)`,
		userID, topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("create performance record (user %d, topic %d): %w", userID, topicID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get performance record insert ID: %w", err)
	}

	return &study.PerformanceRecord{
		ID:      id,
		UserID:  userID,
		TopicID: topicID,
	}, nil
}

// savePerformance writes the mutated aggregate fields back to the locked row.
func savePerformance(ctx context.Context, tx *sqlx.Tx, record *study.PerformanceRecord) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE performance_records
		SET total_sessions = ?, total_correct = ?, total_questions = ?, average_score = ?,
			last_studied_at = ?, next_due_at = ?, interval_days = ?, retention_score = ?
		WHERE id = ?`,
		record.TotalSessions, record.TotalCorrect, record.TotalQuestions, record.AverageScore,
		record.LastStudiedAt, record.NextDueAt, record.IntervalDays, record.RetentionScore,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("save performance record %d: %w", record.ID, err)
	}
	return nil
}
