package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/worktimer/internal/ledger"
	"github.com/fakeyudi/worktimer/internal/record"
	"github.com/fakeyudi/worktimer/internal/tui"
)

var (
	historyFormat      string
	historyLimit       int
	historyInteractive bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List records posted from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(historyFormat)
		if format != "text" && format != "json" {
			return fmt.Errorf("unsupported format %q (text or json)", historyFormat)
		}

		// Opening would create the file, so a missing ledger is checked first.
		if _, err := os.Stat(cfg.LedgerPath); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No records posted yet.")
			return nil
		}
		led, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer led.Close()

		entries, err := led.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if historyInteractive {
			return tui.RunHistory(entries, led.Path())
		}
		if format == "json" {
			return printHistoryJSON(cmd.OutOrStdout(), entries)
		}
		return printHistoryText(cmd.OutOrStdout(), entries)
	},
}

func printHistoryJSON(w io.Writer, entries []ledger.Entry) error {
	if entries == nil {
		entries = []ledger.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printHistoryText(w io.Writer, entries []ledger.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No records posted yet.")
		return nil
	}
	r := &record.TextRenderer{}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s  remote id %s\n", e.PostedAt.Local().Format("2006-01-02 15:04:05"), e.RemoteID)
		body, err := r.Render(&e.Payload)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(body))
	}
	return nil
}

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "output format: text or json")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of records (0 for all)")
	historyCmd.Flags().BoolVarP(&historyInteractive, "interactive", "i", false, "browse records in the full-screen viewer")
	rootCmd.AddCommand(historyCmd)
}
