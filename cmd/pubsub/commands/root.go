package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pubsub",
		Short:         "In-process publish/subscribe event bus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default searches ./config.yaml, $HOME/.pubsub, /etc/pubsub)")

	rootCmd.AddCommand(
		NewDemoCommand(),
		NewVersionCommand(),
	)

	return rootCmd
}
