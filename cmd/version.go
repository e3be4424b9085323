package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X github.com/fakeyudi/worktimer/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the worktimer version",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worktimer %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
