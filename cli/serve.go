package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inferno-tracker-bot/web"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll Telegram and run the daily clock jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, log, err := loadConfig(opts, true)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.sched.Start()

	var httpApp *fiber.App
	if cfg.HTTPAddr != "" {
		httpApp = web.New(a.store, log)
		go func() {
			if err := httpApp.Listen(cfg.HTTPAddr); err != nil {
				log.Error("http server stopped", zap.Error(err))
			}
		}()
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
	}

	go a.bot.Start()
	log.Info("bot started",
		zap.Int64("group_id", cfg.GroupChatID),
		zap.Int("thread_id", cfg.ThreadID),
		zap.String("timezone", cfg.Timezone),
	)

	<-ctx.Done()
	log.Info("shutting down")

	a.bot.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.sched.Stop(shutdownCtx)
	if httpApp != nil {
		if err := httpApp.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("http shutdown failed", zap.Error(err))
		}
	}
	return nil
}
