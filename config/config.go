package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot needs at startup. Values come from the process
// environment, then a .env file, then config.json, then defaults.
type Config struct {
	BotToken    string `json:"bot_token"`
	DatabaseURL string `json:"database_url"`
	GroupChatID int64  `json:"group_id"`
	ThreadID    int    `json:"thread_id"`

	Timezone         string        `json:"timezone"`
	ReminderTime     string        `json:"reminder_time"`
	NightlyTime      string        `json:"nightly_time"`
	ResetTime        string        `json:"reset_time"`
	LeaderboardDelay time.Duration `json:"-"`

	RedisURL string `json:"redis_url"`
	HTTPAddr string `json:"http_addr"`

	Log Log `json:"log"`

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool `json:"-"`
}

type Log struct {
	Level      string `json:"level"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

func defaults() *Config {
	return &Config{
		Timezone:         "Asia/Kolkata",
		ReminderTime:     "21:30",
		NightlyTime:      "23:01",
		ResetTime:        "00:00",
		LeaderboardDelay: time.Second,
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load builds the configuration. jsonPath may point at a missing file. envFiles
// defaults to ".env" when empty.
func Load(jsonPath string, envFiles ...string) (*Config, error) {
	cfg := defaults()
	cfg.EnvFileLoaded = godotenv.Load(envFiles...) == nil

	if err := loadJSON(jsonPath, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var raw struct {
		*Config
		LeaderboardDelay string `json:"leaderboard_delay"`
	}
	raw.Config = cfg
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if raw.LeaderboardDelay != "" {
		d, err := time.ParseDuration(raw.LeaderboardDelay)
		if err != nil {
			return fmt.Errorf("leaderboard_delay: %w", err)
		}
		cfg.LeaderboardDelay = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.BotToken, "BOT_TOKEN")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.ReminderTime, "REMINDER_TIME")
	setString(&cfg.NightlyTime, "NIGHTLY_TIME")
	setString(&cfg.ResetTime, "RESET_TIME")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Path, "LOG_PATH")

	if v := env("GROUP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GROUP_ID is not an integer: %q", v)
		}
		cfg.GroupChatID = id
	}
	if v := env("THREAD_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("THREAD_ID is not an integer: %q", v)
		}
		cfg.ThreadID = id
	}
	if v := env("LEADERBOARD_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEADERBOARD_DELAY: %w", err)
		}
		cfg.LeaderboardDelay = d
	}

	for key, dst := range map[string]*int{
		"LOG_MAX_SIZE_MB":  &cfg.Log.MaxSizeMB,
		"LOG_MAX_BACKUPS":  &cfg.Log.MaxBackups,
		"LOG_MAX_AGE_DAYS": &cfg.Log.MaxAgeDays,
	} {
		if v := env(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s is not an integer: %q", key, v)
			}
			*dst = n
		}
	}
	if v := env("LOG_COMPRESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_COMPRESS is not a boolean: %q", v)
		}
		cfg.Log.Compress = b
	}
	return nil
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is not set and config.json has no bot_token")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.GroupChatID == 0 {
		return errors.New("GROUP_ID is missing or invalid")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"REMINDER_TIME": c.ReminderTime,
		"NIGHTLY_TIME":  c.NightlyTime,
		"RESET_TIME":    c.ResetTime,
	} {
		if _, _, err := ParseClock(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.LeaderboardDelay < 0 {
		return errors.New("LEADERBOARD_DELAY must not be negative")
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseClock parses a wall-clock time written as HH:MM.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
