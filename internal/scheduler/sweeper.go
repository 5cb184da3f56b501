// Package scheduler implements the recurring due-review sweep that starts
// scheduled study sessions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fkobayashi/studyagent/internal/notify"
	"github.com/fkobayashi/studyagent/internal/study"
)

// DefaultSweepInterval is how often the periodic sweep runs.
const DefaultSweepInterval = 30 * time.Minute

// Sweeper enumerates due performance records and dispatches scheduled study
// sessions. It holds no exclusive lock over the ledger: idempotency comes from
// the single-active-session-per-user rule enforced at session creation.
type Sweeper struct {
	ledger    *study.Ledger
	manager   *study.Manager
	users     study.UserStore
	topics    study.TopicStore
	schedules study.ScheduleStore
	notifier  notify.Notifier
}

// NewSweeper creates a Sweeper. notifier may be nil when reminders are not
// wanted (e.g. one-shot CLI sweeps).
func NewSweeper(
	ledger *study.Ledger,
	manager *study.Manager,
	users study.UserStore,
	topics study.TopicStore,
	schedules study.ScheduleStore,
	notifier notify.Notifier,
) *Sweeper {
	return &Sweeper{
		ledger:    ledger,
		manager:   manager,
		users:     users,
		topics:    topics,
		schedules: schedules,
		notifier:  notifier,
	}
}

// SweepStats summarizes one sweep run.
type SweepStats struct {
	Due     int // due records seen
	Started int // sessions started
	Skipped int // benign skips: active session, disabled or out-of-window schedule
	Failed  int // start attempts that errored
}

// userContext caches per-user lookups within a single sweep.
type userContext struct {
	user      *study.User
	dispatch  bool
	config    *study.ScheduleConfig
	dueTitles []string
	started   bool
}

// RunDueSweep runs one sweep as of the given instant. A failure for one
// (user, topic) never blocks the rest of the sweep; running the sweep twice
// for the same instant starts at most one session per (user, topic).
func (s *Sweeper) RunDueSweep(ctx context.Context, asOf time.Time) (SweepStats, error) {
	var stats SweepStats

	due, err := s.ledger.DueRecords(ctx, asOf)
	if err != nil {
		return stats, fmt.Errorf("enumerate due records: %w", err)
	}
	stats.Due = len(due)

	users := make(map[int64]*userContext)
	for _, record := range due {
		uc, err := s.userContextFor(ctx, users, record.UserID, asOf)
		if err != nil {
			slog.Default().Error("Skipping due record: user lookup failed",
				"userID", record.UserID, "topicID", record.TopicID, "error", err)
			stats.Failed++
			continue
		}
		if !uc.dispatch {
			stats.Skipped++
			continue
		}

		if title := s.topicTitle(ctx, record.TopicID); title != "" {
			uc.dueTitles = append(uc.dueTitles, title)
		}

		session, err := s.manager.StartSession(ctx, record.UserID, record.TopicID, study.TriggerScheduled, uc.config.QuestionsPerSession)
		switch {
		case err == nil:
			stats.Started++
			uc.started = true
			slog.Default().Info("Dispatched scheduled session",
				"sessionID", session.ID, "userID", record.UserID, "topicID", record.TopicID)
		case errors.Is(err, study.ErrSessionAlreadyActive):
			// A manual or previously scheduled session is still in flight. The
			// record stays due and is retried on the next sweep.
			stats.Skipped++
			slog.Default().Debug("Session already active, leaving record due",
				"userID", record.UserID, "topicID", record.TopicID)
		default:
			stats.Failed++
			slog.Default().Error("Failed to start scheduled session",
				"userID", record.UserID, "topicID", record.TopicID, "error", err)
		}
	}

	s.sendReminders(ctx, users)

	slog.Default().Info("Due sweep finished",
		"asOf", asOf,
		"due", stats.Due,
		"started", stats.Started,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

func (s *Sweeper) userContextFor(ctx context.Context, cache map[int64]*userContext, userID int64, asOf time.Time) (*userContext, error) {
	if uc, ok := cache[userID]; ok {
		return uc, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	uc := &userContext{user: user}
	if !user.IsActive {
		cache[userID] = uc
		return uc, nil
	}

	config, err := s.schedules.Get(ctx, userID)
	if err != nil {
		var notFound *study.NotFoundError
		if errors.As(err, &notFound) {
			cache[userID] = uc
			return uc, nil
		}
		// Not cached: a failed lookup must count as Failed again for the
		// user's next due record, not turn into a silent skip.
		return nil, fmt.Errorf("load schedule for user %d: %w", userID, err)
	}
	uc.config = config
	uc.dispatch = config.Enabled && inPreferredWindow(config, user.Timezone, asOf)
	cache[userID] = uc
	return uc, nil
}

// inPreferredWindow reports whether asOf, expressed in the user's time zone,
// has reached the configured time of day on an allowed weekday.
func inPreferredWindow(config *study.ScheduleConfig, timezone string, asOf time.Time) bool {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Default().Warn("Invalid user timezone, falling back to UTC",
			"userID", config.UserID, "timezone", timezone)
		loc = time.UTC
	}
	local := asOf.In(loc)

	if !config.WeekdayAllowed(local.Weekday()) {
		return false
	}

	preferred, err := time.Parse("15:04", config.PreferredTime)
	if err != nil {
		slog.Default().Warn("Invalid preferred time in schedule",
			"userID", config.UserID, "preferredTime", config.PreferredTime)
		return false
	}

	minutesOfDay := local.Hour()*60 + local.Minute()
	preferredMinutes := preferred.Hour()*60 + preferred.Minute()
	return minutesOfDay >= preferredMinutes
}

func (s *Sweeper) topicTitle(ctx context.Context, topicID int64) string {
	topic, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		slog.Default().Debug("Failed to resolve topic title", "topicID", topicID, "error", err)
		return ""
	}
	return topic.Title
}

// sendReminders notifies each user the sweep started a session for: first
// that their scheduled study time arrived, then the list of due topics.
// Notification failures are logged and never affect sweep results.
func (s *Sweeper) sendReminders(ctx context.Context, users map[int64]*userContext) {
	if s.notifier == nil {
		return
	}
	for _, uc := range users {
		if !uc.started {
			continue
		}
		if err := s.notifier.Notify(ctx, uc.user.ChatID, notify.StudyReminder()); err != nil {
			slog.Default().Error("Failed to send study reminder",
				"userID", uc.user.ID, "error", err)
		}
		if len(uc.dueTitles) == 0 {
			continue
		}
		if err := s.notifier.Notify(ctx, uc.user.ChatID, notify.ReviewReminder(uc.dueTitles)); err != nil {
			slog.Default().Error("Failed to send review reminder",
				"userID", uc.user.ID, "error", err)
		}
	}
}

// Run executes the sweep on a fixed interval until the context is cancelled.
// The first sweep runs immediately.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunDueSweep(ctx, time.Now()); err != nil {
			slog.Default().Error("Due sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
