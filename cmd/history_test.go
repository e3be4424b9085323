package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/worktimer/internal/config"
	"github.com/fakeyudi/worktimer/internal/ledger"
	"github.com/fakeyudi/worktimer/internal/record"
)

func seedLedger(t *testing.T, n int) {
	t.Helper()
	led, err := ledger.Open(config.Defaults().LedgerPath)
	require.NoError(t, err)
	defer led.Close()

	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := led.Append(context.Background(), ledger.Entry{
			SessionID: "s",
			RemoteID:  string(rune('1' + i)),
			PostedAt:  base.Add(time.Duration(i) * time.Hour),
			Payload:   record.Payload{StartTimestamp: "09:00:00", StopTimestamp: "09:30:00", ElapsedFormatted: "00:30", Description: "task"},
		})
		require.NoError(t, err)
	}
}

func TestHistoryWithoutLedger(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No records posted yet.")
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	isolate(t)
	seedLedger(t, 3)

	out, err := executeCommand(rootCmd, "history", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "remote id 3")
	assert.Contains(t, out, "remote id 2")
	assert.NotContains(t, out, "remote id 1")
	assert.Less(t, strings.Index(out, "remote id 3"), strings.Index(out, "remote id 2"))
	assert.Contains(t, out, "Elapsed:")
}

func TestHistoryJSONEmptyList(t *testing.T) {
	isolate(t)
	seedLedger(t, 0)

	out, err := executeCommand(rootCmd, "history", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryRejectsUnknownFormat(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "history", "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "csv"`)
}
