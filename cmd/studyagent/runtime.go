package main

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fkobayashi/studyagent/internal/config"
	"github.com/fkobayashi/studyagent/internal/database"
	"github.com/fkobayashi/studyagent/internal/inference/openai"
	"github.com/fkobayashi/studyagent/internal/notify"
	"github.com/fkobayashi/studyagent/internal/scheduler"
	"github.com/fkobayashi/studyagent/internal/storage"
	"github.com/fkobayashi/studyagent/internal/study"
)

// runtime wires the storage layer and the study engine for a command
// invocation. Commands that only touch a subset still build the whole thing;
// construction is cheap and keeps the wiring in one place.
type runtime struct {
	cfg *config.Config
	db  *sqlx.DB

	users        *storage.UserRepository
	repositories *storage.RepositoryRepository
	topics       *storage.TopicRepository
	sessions     *storage.SessionRepository
	assessments  *storage.AssessmentRepository
	performance  *storage.PerformanceRepository
	schedules    *storage.ScheduleRepository

	ledger  *study.Ledger
	manager *study.Manager

	inference *openai.Client
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	inferenceClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxRetryAttempts)
	inferenceClient.SetRequestTimeout(time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second)

	performance := storage.NewPerformanceRepository(db)
	sessions := storage.NewSessionRepository(db)
	assessments := storage.NewAssessmentRepository(db)
	topics := storage.NewTopicRepository(db)

	ledger := study.NewLedger(performance)
	manager := study.NewManager(sessions, assessments, topics, ledger, inferenceClient)

	return &runtime{
		cfg:          cfg,
		db:           db,
		users:        storage.NewUserRepository(db),
		repositories: storage.NewRepositoryRepository(db),
		topics:       topics,
		sessions:     sessions,
		assessments:  assessments,
		performance:  performance,
		schedules:    storage.NewScheduleRepository(db),
		ledger:       ledger,
		manager:      manager,
		inference:    inferenceClient,
	}, nil
}

// newSweeper builds a sweeper over the runtime's stores. notifier may be nil
// for one-shot sweeps without reminders.
func (r *runtime) newSweeper(notifier notify.Notifier) *scheduler.Sweeper {
	return scheduler.NewSweeper(r.ledger, r.manager, r.users, r.topics, r.schedules, notifier)
}

func (r *runtime) Close() error {
	if err := r.inference.Close(); err != nil {
		return err
	}
	return r.db.Close()
}
