package cli

import (
	"fmt"

	"inferno-tracker-bot/bot"
	"inferno-tracker-bot/config"
	"inferno-tracker-bot/guard"
	"inferno-tracker-bot/logger"
	"inferno-tracker-bot/scheduler"
	"inferno-tracker-bot/store"
	"inferno-tracker-bot/tracker"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the fully wired bot: store, Telegram adapter, state machine and clock.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	store   *store.Store
	bot     *bot.Bot
	tracker *tracker.Tracker
	sched   *scheduler.Scheduler

	closers []func() error
}

// loadConfig reads configuration and builds the logger. Only the database URL
// is checked unless full is set.
func loadConfig(opts *RootOptions, full bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if !cfg.EnvFileLoaded {
		log.Info("no .env file found, reading environment variables directly")
	}

	if full {
		err = cfg.Validate()
	} else if cfg.DatabaseURL == "" {
		err = fmt.Errorf("DATABASE_URL is not set")
	}
	if err != nil {
		log.Error("missing required configuration, exiting", zap.Error(err))
		_ = log.Sync()
		return nil, nil, err
	}
	return cfg, log, nil
}

func openStore(cfg *config.Config, log *zap.Logger) (*gorm.DB, *store.Store, error) {
	db, err := store.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("members table ensured")
	return db, store.New(db, log), nil
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	db, st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	a.db, a.store = db, st
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	b, err := bot.NewBot(cfg.BotToken, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	a.bot = b

	loc, err := cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.tracker = tracker.New(st, b, tracker.Config{
		GroupChatID:      cfg.GroupChatID,
		ThreadID:         cfg.ThreadID,
		Location:         loc,
		LeaderboardDelay: cfg.LeaderboardDelay,
	}, log)
	b.Attach(a.tracker)

	g := guard.Always()
	if cfg.RedisURL != "" {
		rg, err := guard.NewRedis(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		g = rg
		a.closers = append(a.closers, rg.Close)
	}

	a.sched, err = scheduler.New(a.tracker, scheduler.Times{
		Reminder: cfg.ReminderTime,
		Nightly:  cfg.NightlyTime,
		Reset:    cfg.ResetTime,
	}, loc, g, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
