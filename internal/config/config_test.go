package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "!", cfg.DefaultPrefix)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.USGSTimeout)
	assert.Equal(t, "sqlite3", cfg.SQLiteDriver)
	assert.Equal(t, 1, cfg.SQLiteMaxOpenConns)
	assert.False(t, cfg.LogSQL)
}

func TestLoadFromEnv_MissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoadFromEnv_InvalidAppEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("APP_ENV", "staging")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("USGS_TIMEOUT", "5s")
	t.Setenv("LOG_SQL", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "?", cfg.DefaultPrefix)
	assert.Equal(t, 5*time.Second, cfg.USGSTimeout)
	assert.True(t, cfg.LogSQL)
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := parseLogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseLogLevel("loud")
	require.Error(t, err)
}
