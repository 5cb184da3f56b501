package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/study"
)

// TopicRepository implements study.TopicStore using MySQL.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// GetByID returns the topic with the given ID.
func (r *TopicRepository) GetByID(ctx context.Context, id int64) (*study.Topic, error) {
	var topic study.Topic
	err := r.db.GetContext(ctx, &topic, "SELECT * FROM topics WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &study.NotFoundError{Entity: "topic", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load topic %d: %w", id, err)
	}
	return &topic, nil
}

// ListByUser returns all topics from the user's active repositories.
func (r *TopicRepository) ListByUser(ctx context.Context, userID int64) ([]study.Topic, error) {
	var topics []study.Topic
	err := r.db.SelectContext(ctx, &topics,
		`SELECT t.* FROM topics t
		JOIN repositories r ON r.id = t.repository_id
		WHERE r.user_id = ? AND r.is_active = TRUE
		ORDER BY t.title`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load topics for user %d: %w", userID, err)
	}
	return topics, nil
}

// ListByRepository returns all topics of one repository.
func (r *TopicRepository) ListByRepository(ctx context.Context, repositoryID int64) ([]study.Topic, error) {
	var topics []study.Topic
	err := r.db.SelectContext(ctx, &topics,
		"SELECT * FROM topics WHERE repository_id = ? ORDER BY title",
		repositoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("load topics for repository %d: %w", repositoryID, err)
	}
	return topics, nil
}

// Upsert inserts the topic or, when a topic with the same repository and
// title exists, replaces its content if the fingerprint changed. Performance
// history is keyed by topic ID and survives content updates.
func (r *TopicRepository) Upsert(ctx context.Context, topic *study.Topic) error {
	var existing study.Topic
	err := r.db.GetContext(ctx, &existing,
		"SELECT * FROM topics WHERE repository_id = ? AND title = ?",
		topic.RepositoryID, topic.Title,
	)
	if errors.Is(err, sql.ErrNoRows) {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO topics (repository_id, title, content, content_hash, last_synced_at)
			VALUES (?, ?, ?, ?, ?)`,
			topic.RepositoryID, topic.Title, topic.Content, topic.ContentHash, topic.LastSyncedAt,
		)
		if err != nil {
			return fmt.Errorf("insert topic %q: %w", topic.Title, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get topic insert ID: %w", err)
		}
		topic.ID = id
		return nil
	}
	if err != nil {
		return fmt.Errorf("find topic %q: %w", topic.Title, err)
	}

	topic.ID = existing.ID
	if existing.ContentHash == topic.ContentHash {
		_, err := r.db.ExecContext(ctx,
			"UPDATE topics SET last_synced_at = ? WHERE id = ?",
			topic.LastSyncedAt, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("touch topic %d: %w", existing.ID, err)
		}
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE topics SET content = ?, content_hash = ?, last_synced_at = ? WHERE id = ?",
		topic.Content, topic.ContentHash, topic.LastSyncedAt, existing.ID,
	)
	if err != nil {
		return fmt.Errorf("update topic %d: %w", existing.ID, err)
	}
	return nil
}

// RepositoryRepository manages registered content repositories.
type RepositoryRepository struct {
	db *sqlx.DB
}

// NewRepositoryRepository creates a new RepositoryRepository.
func NewRepositoryRepository(db *sqlx.DB) *RepositoryRepository {
	return &RepositoryRepository{db: db}
}

// ListByUser returns the user's registered repositories.
func (r *RepositoryRepository) ListByUser(ctx context.Context, userID int64) ([]study.Repository, error) {
	var repositories []study.Repository
	err := r.db.SelectContext(ctx, &repositories,
		"SELECT * FROM repositories WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load repositories for user %d: %w", userID, err)
	}
	return repositories, nil
}

// GetOrCreate finds the user's repository by URL or registers a new one.
func (r *RepositoryRepository) GetOrCreate(ctx context.Context, userID int64, url, owner, name string) (*study.Repository, error) {
	var repository study.Repository
	err := r.db.GetContext(ctx, &repository,
		"SELECT * FROM repositories WHERE user_id = ? AND url = ?",
		userID, url,
	)
	if err == nil {
		return &repository, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find repository %q: %w", url, err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO repositories (user_id, url, owner, name, is_active) VALUES (?, ?, ?, ?, TRUE)",
		userID, url, owner, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert repository %q: %w", url, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get repository insert ID: %w", err)
	}

	return &study.Repository{
		ID:       id,
		UserID:   userID,
		URL:      url,
		Owner:    owner,
		Name:     name,
		IsActive: true,
	}, nil
}

// TouchSynced records a completed sync.
func (r *RepositoryRepository) TouchSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE repositories SET last_synced_at = ? WHERE id = ?", syncedAt, id,
	); err != nil {
		return fmt.Errorf("touch repository %d: %w", id, err)
	}
	return nil
}
