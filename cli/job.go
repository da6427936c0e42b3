package cli

import (
	"fmt"
	"strings"

	"inferno-tracker-bot/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRunJobCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "run-job <" + strings.Join(scheduler.JobNames, "|") + ">",
		Short:     "Run one clock job immediately and exit",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: scheduler.JobNames,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := a.sched.Trigger(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", args[0])
			return nil
		},
	}
}
