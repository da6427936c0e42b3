package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BOT_TOKEN", "DATABASE_URL", "GROUP_ID", "THREAD_ID", "TIMEZONE",
	"REMINDER_TIME", "NIGHTLY_TIME", "RESET_TIME", "LEADERBOARD_DELAY",
	"REDIS_URL", "HTTP_ADDR", "LOG_LEVEL", "LOG_PATH", "LOG_MAX_SIZE_MB",
	"LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS", "LOG_COMPRESS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)

	assert.False(t, cfg.EnvFileLoaded)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, "21:30", cfg.ReminderTime)
	assert.Equal(t, "23:01", cfg.NightlyTime)
	assert.Equal(t, "00:00", cfg.ResetTime)
	assert.Equal(t, time.Second, cfg.LeaderboardDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/tracker")
	t.Setenv("GROUP_ID", "-1001234567890")
	t.Setenv("THREAD_ID", "42")
	t.Setenv("NIGHTLY_TIME", "23:05")
	t.Setenv("LEADERBOARD_DELAY", "3s")
	t.Setenv("LOG_COMPRESS", "true")
	t.Setenv("LOG_MAX_BACKUPS", "9")

	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(-1001234567890), cfg.GroupChatID)
	assert.Equal(t, 42, cfg.ThreadID)
	assert.Equal(t, "23:05", cfg.NightlyTime)
	assert.Equal(t, 3*time.Second, cfg.LeaderboardDelay)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, 9, cfg.Log.MaxBackups)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("BOT_TOKEN")
	t.Cleanup(func() { os.Unsetenv("BOT_TOKEN") })
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOT_TOKEN=from-dotenv\n"), 0o600))

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.True(t, cfg.EnvFileLoaded)
	assert.Equal(t, "from-dotenv", cfg.BotToken)
}

func TestLoad_JSONFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROUP_ID", "-5")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"bot_token": "from-json",
		"database_url": "sqlite:tracker.db",
		"group_id": 99,
		"leaderboard_delay": "250ms",
		"log": {"level": "debug"}
	}`), 0o600))

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "from-json", cfg.BotToken)
	assert.Equal(t, "sqlite:tracker.db", cfg.DatabaseURL)
	assert.Equal(t, int64(-5), cfg.GroupChatID, "environment wins over config.json")
	assert.Equal(t, 250*time.Millisecond, cfg.LeaderboardDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoad_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"GROUP_ID":          "group",
		"THREAD_ID":         "x",
		"LEADERBOARD_DELAY": "soon",
		"LOG_COMPRESS":      "maybe",
		"LOG_MAX_SIZE_MB":   "big",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load("", noEnvFile(t))
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := defaults()
		c.BotToken = "t"
		c.DatabaseURL = "sqlite::memory:"
		c.GroupChatID = -1
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing token", func(c *Config) { c.BotToken = "" }, "BOT_TOKEN"},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"missing group", func(c *Config) { c.GroupChatID = 0 }, "GROUP_ID"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"bad reminder", func(c *Config) { c.ReminderTime = "9pm" }, "REMINDER_TIME"},
		{"bad reset", func(c *Config) { c.ResetTime = "24:00" }, "RESET_TIME"},
		{"negative delay", func(c *Config) { c.LeaderboardDelay = -time.Second }, "LEADERBOARD_DELAY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.wantErr)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("21:30")
	require.NoError(t, err)
	assert.Equal(t, 21, h)
	assert.Equal(t, 30, m)

	h, m, err = ParseClock(" 00:00 ")
	require.NoError(t, err)
	assert.Zero(t, h)
	assert.Zero(t, m)

	_, _, err = ParseClock("7")
	assert.Error(t, err)
}
