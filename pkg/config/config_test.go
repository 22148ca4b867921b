package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)
	assert.Equal(t, "empathy_memory.db", cfg.Memory.SQLitePath)
	assert.Equal(t, 30, cfg.Memory.RecentLimit)
	assert.Equal(t, time.Second, cfg.Generation.MinInterval)
	assert.Equal(t, 3, cfg.Generation.MaxRetries)
	assert.Equal(t, float64(2), cfg.Generation.BackoffBase)
	assert.Equal(t, 5, cfg.Emotion.MinLength)
	assert.Equal(t, 512, cfg.Emotion.MaxLength)
	assert.Equal(t, 7, cfg.Analytics.WindowDays)
	assert.Empty(t, cfg.Generation.Provider, "generation should be unconfigured by default")
	assert.Empty(t, cfg.Notify.Sink, "notifications should be disabled by default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("MEMORY_BACKEND", "SHEETS")
	t.Setenv("GENERATION_PROVIDER", "gemini")
	t.Setenv("GENERATION_MIN_INTERVAL", "2s")
	t.Setenv("ANALYTICS_WINDOW_DAYS", "14")

	cfg, err := Load(newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTP.Port)
	assert.Equal(t, "sheets", cfg.Memory.Backend)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, 2*time.Second, cfg.Generation.MinInterval)
	assert.Equal(t, 14, cfg.Analytics.WindowDays)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("GENERATION_MIN_INTERVAL", "soon")
	t.Setenv("GENERATION_BACKOFF_BASE", "fast")

	cfg, err := Load(newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, time.Second, cfg.Generation.MinInterval)
	assert.Equal(t, float64(2), cfg.Generation.BackoffBase)
}

func TestValidate_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("MEMORY_BACKEND", "dynamo")
	_, err := Load(newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory backend")
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "llama-at-home")
	_, err := Load(newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation provider")
}

func TestValidate_RejectsBadRetryBudget(t *testing.T) {
	t.Setenv("GENERATION_MAX_RETRIES", "0")
	_, err := Load(newTestLogger())
	require.Error(t, err)
}
