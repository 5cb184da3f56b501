// Package study implements the study session lifecycle and the performance
// ledger that drives spaced-repetition scheduling.
package study

import (
	"strings"
	"time"
)

// SessionState is the lifecycle state of a study session. The state is
// persisted with the session row so that an interrupted process can resume a
// session where it left off.
type SessionState string

const (
	SessionStateCreated        SessionState = "created"
	SessionStatePresenting     SessionState = "presenting"
	SessionStateAwaitingAnswer SessionState = "awaiting_answer"
	SessionStateEvaluating     SessionState = "evaluating"
	SessionStateCompleted      SessionState = "completed"
	SessionStateCancelled      SessionState = "cancelled"
)

// Terminal reports whether the state allows no further transitions.
func (s SessionState) Terminal() bool {
	return s == SessionStateCompleted || s == SessionStateCancelled
}

// TriggerKind records how a session was started.
type TriggerKind string

const (
	TriggerManual    TriggerKind = "manual"
	TriggerScheduled TriggerKind = "scheduled"
)

// CancelReason explains why a session ended in the cancelled state.
type CancelReason string

const (
	CancelReasonUserRequested    CancelReason = "user_requested"
	CancelReasonGenerationFailed CancelReason = "generation_failed"
	CancelReasonEvaluationFailed CancelReason = "evaluation_failed"
)

// Cadence describes how often a user's scheduled reviews may run.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
	CadenceCustom Cadence = "custom"
)

// User is a registered chat user.
type User struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Username  string    `db:"username"`
	Timezone  string    `db:"timezone"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Repository is a content repository registered by a user.
type Repository struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	URL          string     `db:"url"`
	Owner        string     `db:"owner"`
	Name         string     `db:"name"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	LastSyncedAt *time.Time `db:"last_synced_at"`
}

// Topic is a unit of study content synced from a repository. The content hash
// detects body changes across syncs; a changed hash replaces the body but does
// not reset the topic's performance history.
type Topic struct {
	ID           int64     `db:"id"`
	RepositoryID int64     `db:"repository_id"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	ContentHash  string    `db:"content_hash"`
	LastSyncedAt time.Time `db:"last_synced_at"`
}

// StudySession is one attempt to quiz a user on a topic. Once the state is
// terminal, the session is immutable history.
type StudySession struct {
	ID            int64        `db:"id"`
	UserID        int64        `db:"user_id"`
	TopicID       int64        `db:"topic_id"`
	TriggerKind   TriggerKind  `db:"trigger_kind"`
	State         SessionState `db:"state"`
	QuestionIndex int          `db:"question_index"`
	QuestionCount int          `db:"question_count"`
	StartedAt     time.Time    `db:"started_at"`
	CompletedAt   *time.Time   `db:"completed_at"`
	CancelReason  CancelReason `db:"cancel_reason"`
}

// Assessment is one question/answer pair within a session. It is created when
// the question is generated and finalized exactly once when evaluated.
type Assessment struct {
	ID              int64      `db:"id"`
	SessionID       int64      `db:"session_id"`
	Position        int        `db:"position"`
	Question        string     `db:"question"`
	ReferenceAnswer string     `db:"reference_answer"`
	UserAnswer      *string    `db:"user_answer"`
	IsCorrect       *bool      `db:"is_correct"`
	Score           *float64   `db:"score"`
	Feedback        *string    `db:"feedback"`
	AnsweredAt      *time.Time `db:"answered_at"`
}

// Answered reports whether the assessment has been evaluated.
func (a Assessment) Answered() bool {
	return a.Score != nil
}

// PerformanceRecord is the per (user, topic) aggregate that the scheduler
// reads to decide due-ness. Exactly one record exists per pair.
type PerformanceRecord struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	TopicID        int64      `db:"topic_id"`
	TotalSessions  int        `db:"total_sessions"`
	TotalCorrect   int        `db:"total_correct"`
	TotalQuestions int        `db:"total_questions"`
	AverageScore   float64    `db:"average_score"`
	LastStudiedAt  *time.Time `db:"last_studied_at"`
	NextDueAt      *time.Time `db:"next_due_at"`
	IntervalDays   int        `db:"interval_days"`
	RetentionScore float64    `db:"retention_score"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Due reports whether the record's next review time has passed as of asOf.
func (r PerformanceRecord) Due(asOf time.Time) bool {
	return r.NextDueAt != nil && !r.NextDueAt.After(asOf)
}

// ScheduleConfig holds a user's review schedule preferences. It is read-only
// input to the due sweep and mutated only by explicit user action.
type ScheduleConfig struct {
	UserID              int64     `db:"user_id"`
	Enabled             bool      `db:"enabled"`
	Cadence             Cadence   `db:"cadence"`
	PreferredTime       string    `db:"preferred_time"` // "15:04"
	Weekdays            string    `db:"weekdays"`       // comma-separated lowercase day names
	QuestionsPerSession int       `db:"questions_per_session"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// WeekdayAllowed reports whether the config permits a scheduled session on the
// given weekday. A daily cadence allows every day; weekly and custom cadences
// consult the weekday list.
func (c ScheduleConfig) WeekdayAllowed(day time.Weekday) bool {
	if c.Cadence == CadenceDaily {
		return true
	}
	return containsWeekday(c.Weekdays, day)
}

func containsWeekday(csv string, day time.Weekday) bool {
	want := strings.ToLower(day.String())
	for _, part := range strings.Split(csv, ",") {
		if strings.ToLower(strings.TrimSpace(part)) == want {
			return true
		}
	}
	return false
}
