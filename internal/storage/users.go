package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/study"
)

// UserRepository implements study.UserStore using MySQL.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns the user with the given ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*study.User, error) {
	var user study.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &study.NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// GetOrCreateByChatID finds the user owning the chat or registers a new one.
func (r *UserRepository) GetOrCreateByChatID(ctx context.Context, chatID int64, username string) (*study.User, error) {
	var user study.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE chat_id = ?", chatID)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user by chat %d: %w", chatID, err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO users (chat_id, username, timezone, is_active) VALUES (?, ?, 'UTC', TRUE)",
		chatID, username,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user for chat %d: %w", chatID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get user insert ID: %w", err)
	}

	return &study.User{
		ID:       id,
		ChatID:   chatID,
		Username: username,
		Timezone: "UTC",
		IsActive: true,
	}, nil
}
