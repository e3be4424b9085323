package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/worktimer/internal/config"
	"github.com/fakeyudi/worktimer/internal/kintone"
	"github.com/fakeyudi/worktimer/internal/ledger"
	"github.com/fakeyudi/worktimer/internal/record"
	"github.com/fakeyudi/worktimer/internal/submit"
	"github.com/fakeyudi/worktimer/internal/timer"
	"github.com/fakeyudi/worktimer/internal/tui"
)

var (
	runPlain         bool
	runDryRun        bool
	runMinutes       int
	runDescription   string
	runNotes         string
	runProjectName   string
	runProjectNumber string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the work timer",
	Long: `Open the work timer. Start, stop and reset the session, fill in the
record fields and post the finished session to the record store.

Without a terminal, or with --plain, commands are read line by line from
stdin instead (type "help" for the list).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes := cfg.TargetMinutes
		if cmd.Flags().Changed("minutes") {
			minutes = runMinutes
		}
		if minutes < 1 || minutes > timer.MaxMinutes {
			return fmt.Errorf("--minutes must be between 1 and %d", timer.MaxMinutes)
		}

		machine := timer.New(timer.WithLogger(logger), timer.WithTargetMinutes(minutes))
		defer machine.Close()

		sub, cleanup := newSubmitter(runDryRun)
		defer cleanup()

		fields := record.Fields{
			Description:   runDescription,
			Notes:         runNotes,
			ProjectName:   firstNonEmpty(runProjectName, cfg.ProjectName),
			ProjectNumber: firstNonEmpty(runProjectNumber, cfg.ProjectNumber),
		}

		if runPlain || !term.IsTerminal(os.Stdin.Fd()) {
			return runLines(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), machine, sub, fields)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		return tui.RunTimer(ctx, tui.Options{
			Machine:       machine,
			Submitter:     sub,
			Fields:        fields,
			ConfigUpdates: watchConfig(ctx),
		})
	},
}

// newSubmitter wires the record store client and the local ledger. A ledger
// that cannot be opened only costs the history, so it is logged and skipped.
func newSubmitter(dryRun bool) (*submit.Submitter, func()) {
	sub := &submit.Submitter{
		Profile: activeProfile,
		Layout:  cfg.TimeLayout,
		DryRun:  dryRun,
		Logger:  logger,
	}
	if dryRun {
		return sub, func() {}
	}

	client := &kintone.Client{
		BaseURL:     cfg.APIURL,
		ContentType: cfg.ContentType,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout()},
		Logger:      logger,
	}
	if activeProfile != nil {
		client.Token = activeProfile.APIToken
	}
	sub.Client = client

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		logger.Warn("history disabled", "path", cfg.LedgerPath, "err", err)
		return sub, func() {}
	}
	sub.Ledger = led
	return sub, func() {
		if err := led.Close(); err != nil {
			logger.Warn("closing ledger", "err", err)
		}
	}
}

// watchConfig streams reloaded configuration until ctx is done. Only the
// latest reload is kept if the screen has not picked up the previous one.
func watchConfig(ctx context.Context) <-chan config.Config {
	paths, err := config.Paths()
	if err != nil {
		logger.Warn("config reload disabled", "err", err)
		return nil
	}
	updates := make(chan config.Config, 1)
	w := &config.Watcher{Paths: paths, Load: config.Load, Logger: logger}
	go func() {
		err := w.Run(ctx, func(c config.Config) {
			select {
			case <-updates:
			default:
			}
			updates <- c
		})
		if err != nil {
			logger.Warn("config watcher stopped", "err", err)
		}
	}()
	return updates
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "read commands from stdin instead of opening the full-screen timer")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show the record that would be posted without sending it")
	runCmd.Flags().IntVarP(&runMinutes, "minutes", "m", 0, "target duration in minutes (default from config)")
	runCmd.Flags().StringVarP(&runDescription, "description", "d", "", "work description")
	runCmd.Flags().StringVarP(&runNotes, "notes", "n", "", "notes")
	runCmd.Flags().StringVar(&runProjectName, "project-name", "", "project name (default from config)")
	runCmd.Flags().StringVar(&runProjectNumber, "project-number", "", "project number (default from config)")
	rootCmd.AddCommand(runCmd)
}
