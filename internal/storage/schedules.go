package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/study"
)

// ScheduleRepository implements study.ScheduleStore using MySQL.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Get returns the user's schedule config.
func (r *ScheduleRepository) Get(ctx context.Context, userID int64) (*study.ScheduleConfig, error) {
	var config study.ScheduleConfig
	err := r.db.GetContext(ctx, &config, "SELECT * FROM schedule_configs WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &study.NotFoundError{Entity: "schedule config", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule config for user %d: %w", userID, err)
	}
	return &config, nil
}

// Upsert creates or replaces the user's schedule config.
func (r *ScheduleRepository) Upsert(ctx context.Context, config *study.ScheduleConfig) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_configs
			(user_id, enabled, cadence, preferred_time, weekdays, questions_per_session)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			enabled = VALUES(enabled),
			cadence = VALUES(cadence),
			preferred_time = VALUES(preferred_time),
			weekdays = VALUES(weekdays),
			questions_per_session = VALUES(questions_per_session)`,
		config.UserID, config.Enabled, config.Cadence, config.PreferredTime,
		config.Weekdays, config.QuestionsPerSession,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule config for user %d: %w", config.UserID, err)
	}
	return nil
}

// Disable turns off scheduled sessions for the user.
func (r *ScheduleRepository) Disable(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE schedule_configs SET enabled = FALSE WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("disable schedule for user %d: %w", userID, err)
	}
	return nil
}
