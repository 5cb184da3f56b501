package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name       string
		configYAML string
		env        map[string]string
		assertion  func(t *testing.T, cfg *Config, err error)
	}{
		{
			name:       "empty file falls back to defaults",
			configYAML: "",
			assertion: func(t *testing.T, cfg *Config, err error) {
				require.NoError(t, err)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 3306, cfg.Database.Port)
				assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
				assert.Equal(t, uint(3), cfg.OpenAI.MaxRetryAttempts)
				assert.Equal(t, 120, cfg.OpenAI.TimeoutSeconds)
				assert.True(t, cfg.Scheduler.Enabled)
				assert.Equal(t, 30, cfg.Scheduler.SweepIntervalMinutes)
				assert.Equal(t, 5, cfg.Study.QuestionsPerSession)
			},
		},
		{
			name: "file values override defaults",
			configYAML: `
database:
  host: db.internal
  port: 3307
scheduler:
  enabled: false
study:
  questions_per_session: 10
`,
			assertion: func(t *testing.T, cfg *Config, err error) {
				require.NoError(t, err)
				assert.Equal(t, "db.internal", cfg.Database.Host)
				assert.Equal(t, 3307, cfg.Database.Port)
				assert.False(t, cfg.Scheduler.Enabled)
				assert.Equal(t, 10, cfg.Study.QuestionsPerSession)
			},
		},
		{
			name:       "secrets are read from the environment",
			configYAML: "",
			env: map[string]string{
				"OPENAI_API_KEY":     "sk-test",
				"TELEGRAM_BOT_TOKEN": "tg-token",
				"GITHUB_TOKEN":       "gh-token",
				"DB_PASSWORD":        "hunter2",
			},
			assertion: func(t *testing.T, cfg *Config, err error) {
				require.NoError(t, err)
				assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
				assert.Equal(t, "tg-token", cfg.Telegram.Token)
				assert.Equal(t, "gh-token", cfg.GitHub.Token)
				assert.Equal(t, "hunter2", cfg.Database.Password)
			},
		},
		{
			name: "rejects a sweep interval below one minute",
			configYAML: `
scheduler:
  sweep_interval_minutes: 0
`,
			assertion: func(t *testing.T, cfg *Config, err error) {
				assert.ErrorContains(t, err, "invalid configuration")
				assert.Nil(t, cfg)
			},
		},
		{
			name: "rejects too many questions per session",
			configYAML: `
study:
  questions_per_session: 25
`,
			assertion: func(t *testing.T, cfg *Config, err error) {
				assert.ErrorContains(t, err, "invalid configuration")
				assert.Nil(t, cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			loader, err := NewConfigLoader(writeConfigFile(t, tt.configYAML))
			require.NoError(t, err)

			cfg, err := loader.Load()
			tt.assertion(t, cfg, err)
		})
	}
}
