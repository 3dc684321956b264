package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/feedbackdesk/cmd/feedbackctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "feedbackctl",
		Short:        "Administrative tasks for the feedback desk",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.UserCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
