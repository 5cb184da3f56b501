package study

import (
	"context"
	"time"
)

//go:generate mockgen -source=store.go -destination=../mocks/study/mock_store.go -package=mock_study

// SessionStore persists study sessions. Create must atomically enforce the
// single-active-session-per-user rule and return ErrSessionAlreadyActive when
// a non-terminal session already exists for the user.
type SessionStore interface {
	Create(ctx context.Context, session *StudySession) error
	GetByID(ctx context.Context, id int64) (*StudySession, error)
	FindActiveByUser(ctx context.Context, userID int64) (*StudySession, error)
	Update(ctx context.Context, session *StudySession) error

	// CompleteWithOutcome marks the session completed and applies the ledger
	// mutation to the session's (user, topic) performance record inside one
	// transaction, so a session is never left completed but unscored.
	CompleteWithOutcome(ctx context.Context, session *StudySession, mutate func(record *PerformanceRecord) error) (*PerformanceRecord, error)
}

// AssessmentStore persists the question/answer records of a session.
type AssessmentStore interface {
	CreateBatch(ctx context.Context, assessments []*Assessment) error
	ListBySession(ctx context.Context, sessionID int64) ([]Assessment, error)
	Finalize(ctx context.Context, id int64, answer string, isCorrect bool, score float64, feedback string, answeredAt time.Time) error
}

// TopicStore reads study topics.
type TopicStore interface {
	GetByID(ctx context.Context, id int64) (*Topic, error)
	ListByUser(ctx context.Context, userID int64) ([]Topic, error)
}

// PerformanceStore persists per (user, topic) aggregates. Apply runs fn
// against the current record inside a single transaction so that the
// read-modify-write is atomic; a missing record is created first with zeroed
// counters.
type PerformanceStore interface {
	Get(ctx context.Context, userID, topicID int64) (*PerformanceRecord, error)
	Apply(ctx context.Context, userID, topicID int64, fn func(record *PerformanceRecord) error) (*PerformanceRecord, error)
	DueRecords(ctx context.Context, asOf time.Time) ([]PerformanceRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]PerformanceRecord, error)
}

// ScheduleStore persists per-user schedule preferences.
type ScheduleStore interface {
	Get(ctx context.Context, userID int64) (*ScheduleConfig, error)
	Upsert(ctx context.Context, config *ScheduleConfig) error
	Disable(ctx context.Context, userID int64) error
}

// UserStore reads registered users.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
