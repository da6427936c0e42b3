package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
}

// NewRootCommand creates the root command. Running it without a subcommand serves the bot.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "inferno-tracker",
		Short:         "Daily target accountability bot for a Telegram group",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.json", "optional JSON config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "optional dotenv file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunJobCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
