package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/database"
	"github.com/fkobayashi/studyagent/internal/study"
)

// AssessmentRepository implements study.AssessmentStore using MySQL.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// CreateBatch inserts a session's assessments in a single multi-row INSERT.
func (r *AssessmentRepository) CreateBatch(ctx context.Context, assessments []*study.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}

	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		columns := []string{"session_id", "position", "question", "reference_answer"}
		query := database.BuildMultiRowInsert("assessments", columns, len(assessments))

		var args []interface{}
		for _, a := range assessments {
			args = append(args, a.SessionID, a.Position, a.Question, a.ReferenceAnswer)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert assessments: %w", err)
		}
		// MySQL guarantees consecutive auto-increment IDs for multi-row INSERT
		// when innodb_autoinc_lock_mode <= 1.
		firstID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get assessments insert ID: %w", err)
		}
		for i := range assessments {
			assessments[i].ID = firstID + int64(i)
		}
		return nil
	})
}

// ListBySession returns a session's assessments in question order.
func (r *AssessmentRepository) ListBySession(ctx context.Context, sessionID int64) ([]study.Assessment, error) {
	var assessments []study.Assessment
	err := r.db.SelectContext(ctx, &assessments,
		"SELECT * FROM assessments WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load assessments for session %d: %w", sessionID, err)
	}
	return assessments, nil
}

// Finalize records the evaluated answer. An assessment is finalized exactly
// once; the answered_at guard keeps a replay from overwriting the result.
func (r *AssessmentRepository) Finalize(ctx context.Context, id int64, answer string, isCorrect bool, score float64, feedback string, answeredAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assessments
		SET user_answer = ?, is_correct = ?, score = ?, feedback = ?, answered_at = ?
		WHERE id = ? AND answered_at IS NULL`,
		answer, isCorrect, score, feedback, answeredAt, id,
	)
	if err != nil {
		return fmt.Errorf("finalize assessment %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows for assessment %d: %w", id, err)
	}
	if affected == 0 {
		return &study.NotFoundError{Entity: "unanswered assessment", ID: id}
	}
	return nil
}
