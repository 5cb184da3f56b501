// Package storage implements the study stores on MySQL using sqlx.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/database"
	"github.com/fkobayashi/studyagent/internal/study"
)

// SessionRepository implements study.SessionStore using MySQL.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session. The check for an existing non-terminal
// session and the insert run in one transaction, with the user's active rows
// locked, so two concurrent starts for the same user cannot both succeed.
func (r *SessionRepository) Create(ctx context.Context, session *study.StudySession) error {
	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var activeID int64
		err := tx.GetContext(ctx, &activeID,
			"SELECT id FROM study_sessions WHERE user_id = ? AND state NOT IN ('completed', 'cancelled') LIMIT 1 FOR UPDATE",
			session.UserID,
		)
		if err == nil {
			return study.ErrSessionAlreadyActive
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check active session: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO study_sessions
				(user_id, topic_id, trigger_kind, state, question_index, question_count, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			session.UserID, session.TopicID, session.TriggerKind, session.State,
			session.QuestionIndex, session.QuestionCount, session.StartedAt,
		)
		if err != nil {
			return fmt.Errorf("insert study session: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get study session insert ID: %w", err)
		}
		session.ID = id
		return nil
	})
}

// GetByID returns the session with the given ID.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*study.StudySession, error) {
	var session study.StudySession
	err := r.db.GetContext(ctx, &session, "SELECT * FROM study_sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &study.NotFoundError{Entity: "study session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load study session %d: %w", id, err)
	}
	return &session, nil
}

// FindActiveByUser returns the user's non-terminal session, or nil when none
// exists.
func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID int64) (*study.StudySession, error) {
	var session study.StudySession
	err := r.db.GetContext(ctx, &session,
		"SELECT * FROM study_sessions WHERE user_id = ? AND state NOT IN ('completed', 'cancelled') LIMIT 1",
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active session for user %d: %w", userID, err)
	}
	return &session, nil
}

// Update persists the session's mutable lifecycle fields.
func (r *SessionRepository) Update(ctx context.Context, session *study.StudySession) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE study_sessions
		SET state = ?, question_index = ?, question_count = ?, completed_at = ?, cancel_reason = ?
		WHERE id = ?`,
		session.State, session.QuestionIndex, session.QuestionCount,
		session.CompletedAt, session.CancelReason, session.ID,
	)
	if err != nil {
		return fmt.Errorf("update study session %d: %w", session.ID, err)
	}
	return nil
}

// CompleteWithOutcome marks the session completed and applies the ledger
// mutation to the (user, topic) performance record in the same transaction.
func (r *SessionRepository) CompleteWithOutcome(ctx context.Context, session *study.StudySession, mutate func(record *study.PerformanceRecord) error) (*study.PerformanceRecord, error) {
	var record *study.PerformanceRecord
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE study_sessions SET state = ?, completed_at = ? WHERE id = ?",
			session.State, session.CompletedAt, session.ID,
		); err != nil {
			return fmt.Errorf("complete study session %d: %w", session.ID, err)
		}

		rec, err := performanceForUpdate(ctx, tx, session.UserID, session.TopicID)
		if err != nil {
			return err
		}
		if err := mutate(rec); err != nil {
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
