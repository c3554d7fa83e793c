// Package cli implements the supportdesk command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/supportdesk/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	log *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supportdesk",
		Short: "supportdesk — multi-agent insurance customer support",
		Long:  "supportdesk routes insurance support conversations through a supervisor and specialist agents for policy, billing, claims, and general questions.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "supportdesk.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
