package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/worktimer/internal/config"
	"github.com/fakeyudi/worktimer/internal/logging"
	"github.com/fakeyudi/worktimer/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile, if any.
var activeProfile *profile.Profile

// runtimeLog owns the per-run log file; logger is what commands log to.
var (
	runtimeLog *logging.RuntimeLogger
	logger     = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:           "worktimer",
	Short:         "Time a work session and post it as a record",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		activeProfile = nil

		// First run: only the interactive timer offers the wizard, and only
		// when someone is at the keyboard.
		if !profile.Exists() && cmd.Name() == "run" && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to worktimer! Looks like this is your first time.")
			if err := runSetup(cmd, true); err != nil {
				return err
			}
		}

		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		merged, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = merged

		rl, err := logging.New(logging.Options{Level: cfg.LogLevel})
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		runtimeLog = rl
		logger = rl.Logger.With("command", cmd.Name())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closeLog()
		return nil
	},
}

func closeLog() {
	if runtimeLog == nil {
		return
	}
	_ = runtimeLog.Close()
	runtimeLog = nil
	logger = logging.Discard()
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when RunE fails.
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}
