package scheduler_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_inference "github.com/fkobayashi/studyagent/internal/mocks/inference"
	mock_notify "github.com/fkobayashi/studyagent/internal/mocks/notify"
	mock_study "github.com/fkobayashi/studyagent/internal/mocks/study"
	"github.com/fkobayashi/studyagent/internal/scheduler"
	"github.com/fkobayashi/studyagent/internal/study"
)

// asOf is a Monday, 10:00 UTC.
var asOf = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type sweeperMocks struct {
	sessions    *mock_study.MockSessionStore
	assessments *mock_study.MockAssessmentStore
	topics      *mock_study.MockTopicStore
	performance *mock_study.MockPerformanceStore
	schedules   *mock_study.MockScheduleStore
	users       *mock_study.MockUserStore
	inference   *mock_inference.MockClient
	notifier    *mock_notify.MockNotifier
}

func newSweeperMocks(ctrl *gomock.Controller) sweeperMocks {
	return sweeperMocks{
		sessions:    mock_study.NewMockSessionStore(ctrl),
		assessments: mock_study.NewMockAssessmentStore(ctrl),
		topics:      mock_study.NewMockTopicStore(ctrl),
		performance: mock_study.NewMockPerformanceStore(ctrl),
		schedules:   mock_study.NewMockScheduleStore(ctrl),
		users:       mock_study.NewMockUserStore(ctrl),
		inference:   mock_inference.NewMockClient(ctrl),
		notifier:    mock_notify.NewMockNotifier(ctrl),
	}
}

func (m sweeperMocks) newSweeper() *scheduler.Sweeper {
	ledger := study.NewLedger(m.performance)
	manager := study.NewManager(m.sessions, m.assessments, m.topics, ledger, m.inference)
	return scheduler.NewSweeper(ledger, manager, m.users, m.topics, m.schedules, m.notifier)
}

func dueRecord(userID, topicID int64) study.PerformanceRecord {
	due := asOf.Add(-2 * time.Hour)
	return study.PerformanceRecord{UserID: userID, TopicID: topicID, NextDueAt: &due, IntervalDays: 3}
}

func activeUser(id int64) *study.User {
	return &study.User{ID: id, ChatID: 1000 + id, Timezone: "UTC", IsActive: true}
}

func enabledSchedule(userID int64) *study.ScheduleConfig {
	return &study.ScheduleConfig{
		UserID:              userID,
		Enabled:             true,
		Cadence:             study.CadenceDaily,
		PreferredTime:       "09:00",
		QuestionsPerSession: 5,
	}
}

func sweepTopic(id int64) *study.Topic {
	return &study.Topic{
		ID:      id,
		Title:   "Go Channels",
		Content: strings.Repeat("Channels are typed conduits for goroutine communication. ", 10),
	}
}

func TestSweeper_RunDueSweep_DispatchesDueRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7)}, nil)
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(7)).Return(sweepTopic(7), nil).Times(2)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, session *study.StudySession) error {
			assert.Equal(t, study.TriggerScheduled, session.TriggerKind)
			assert.Equal(t, 5, session.QuestionCount)
			session.ID = 200
			return nil
		})
	var messages []string
	mocks.notifier.EXPECT().Notify(gomock.Any(), int64(1001), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, message string) error {
			messages = append(messages, message)
			return nil
		}).Times(2)

	stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 1, Started: 1}, stats)

	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "Time to study")
	assert.Contains(t, messages[1], "Go Channels")
}

func TestSweeper_RunDueSweep_ActiveSessionIsBenignSkip(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7)}, nil)
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(7)).Return(sweepTopic(7), nil).Times(2)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(study.ErrSessionAlreadyActive)

	stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 1, Skipped: 1}, stats)
}

func TestSweeper_RunDueSweep_SkipsWithoutDispatch(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(m sweeperMocks)
	}{
		{
			name: "inactive user",
			setupMocks: func(m sweeperMocks) {
				user := activeUser(1)
				user.IsActive = false
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(user, nil)
			},
		},
		{
			name: "no schedule configured",
			setupMocks: func(m sweeperMocks) {
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
				m.schedules.EXPECT().Get(gomock.Any(), int64(1)).
					Return(nil, &study.NotFoundError{Entity: "schedule config", ID: 1})
			},
		},
		{
			name: "schedule disabled",
			setupMocks: func(m sweeperMocks) {
				config := enabledSchedule(1)
				config.Enabled = false
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
				m.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(config, nil)
			},
		},
		{
			name: "preferred time not reached yet",
			setupMocks: func(m sweeperMocks) {
				config := enabledSchedule(1)
				config.PreferredTime = "20:00"
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
				m.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(config, nil)
			},
		},
		{
			name: "weekday not allowed",
			setupMocks: func(m sweeperMocks) {
				config := enabledSchedule(1)
				config.Cadence = study.CadenceCustom
				config.Weekdays = "saturday,sunday"
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
				m.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(config, nil)
			},
		},
		{
			name: "preferred time in a later timezone",
			setupMocks: func(m sweeperMocks) {
				// 10:00 UTC is 03:00 in Los Angeles, before the 09:00 preference.
				user := activeUser(1)
				user.Timezone = "America/Los_Angeles"
				m.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(user, nil)
				m.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mocks := newSweeperMocks(ctrl)

			mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
				Return([]study.PerformanceRecord{dueRecord(1, 7)}, nil)
			tt.setupMocks(mocks)

			stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
			require.NoError(t, err)
			assert.Equal(t, scheduler.SweepStats{Due: 1, Skipped: 1}, stats)
		})
	}
}

func TestSweeper_RunDueSweep_FailureDoesNotBlockOtherUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7), dueRecord(2, 8)}, nil)

	// User 1's session creation fails hard.
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(7)).Return(sweepTopic(7), nil).Times(2)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(assert.AnError)

	// User 2 is dispatched normally.
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(2)).Return(activeUser(2), nil)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(2)).Return(enabledSchedule(2), nil)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(8)).Return(sweepTopic(8), nil).Times(2)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mocks.notifier.EXPECT().Notify(gomock.Any(), int64(1002), gomock.Any()).Return(nil).Times(2)

	stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 2, Started: 1, Failed: 1}, stats)
}

func TestSweeper_RunDueSweep_ScheduleLookupFailureCountsEveryRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7), dueRecord(1, 8)}, nil)
	// The failed lookup is not cached, so both records retry it and both
	// count as failures rather than the second turning into a skip.
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil).Times(2)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(nil, assert.AnError).Times(2)

	stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 2, Failed: 2}, stats)
}

func TestSweeper_RunDueSweep_UserContextCachedAcrossRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7), dueRecord(1, 8)}, nil)
	// Per-user lookups happen once even with two due topics.
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil).Times(1)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil).Times(1)

	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(7)).Return(sweepTopic(7), nil).Times(2)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(8)).Return(sweepTopic(8), nil).Times(2)

	// The first topic starts a session; the second hits the active session rule.
	first := mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(study.ErrSessionAlreadyActive).After(first)

	mocks.notifier.EXPECT().Notify(gomock.Any(), int64(1001), gomock.Any()).Return(nil).Times(2)

	stats, err := mocks.newSweeper().RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 2, Started: 1, Skipped: 1}, stats)
}

func TestSweeper_RunDueSweep_NilNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	mocks := newSweeperMocks(ctrl)

	mocks.performance.EXPECT().DueRecords(gomock.Any(), asOf).
		Return([]study.PerformanceRecord{dueRecord(1, 7)}, nil)
	mocks.users.EXPECT().GetByID(gomock.Any(), int64(1)).Return(activeUser(1), nil)
	mocks.schedules.EXPECT().Get(gomock.Any(), int64(1)).Return(enabledSchedule(1), nil)
	mocks.topics.EXPECT().GetByID(gomock.Any(), int64(7)).Return(sweepTopic(7), nil).Times(2)
	mocks.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	ledger := study.NewLedger(mocks.performance)
	manager := study.NewManager(mocks.sessions, mocks.assessments, mocks.topics, ledger, mocks.inference)
	sweeper := scheduler.NewSweeper(ledger, manager, mocks.users, mocks.topics, mocks.schedules, nil)

	stats, err := sweeper.RunDueSweep(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, scheduler.SweepStats{Due: 1, Started: 1}, stats)
}
