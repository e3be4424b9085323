package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/worktimer/internal/config"
	"github.com/fakeyudi/worktimer/internal/profile"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the merged configuration",
	Long: `Show the configuration worktimer would use here, after merging the
global config file with the project's .worktimer file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Encode(configFormat, cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the files configuration and profile are read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.Paths()
		if err != nil {
			return err
		}
		if p, err := profile.Path(); err == nil {
			paths = append(paths, p)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().StringVarP(&configFormat, "format", "f", "toml", "output format: json, toml or yaml")
	configCmd.AddCommand(configPathsCmd)
	rootCmd.AddCommand(configCmd)
}
