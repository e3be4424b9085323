package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	rl, err := New(Options{Dir: dir, Level: "debug", RunID: "abc"})
	require.NoError(t, err)

	rl.Logger.Debug("timer started", "session_id", "s1", "elapsed", 3)
	require.NoError(t, rl.Close())

	assert.Equal(t, dir, filepath.Dir(rl.Path()))
	assert.True(t, strings.HasPrefix(filepath.Base(rl.Path()), "worktimer-"))
	assert.True(t, strings.HasSuffix(rl.Path(), "-abc.log"))

	data, err := os.ReadFile(rl.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "timer started", rec["msg"])
	assert.Equal(t, "s1", rec["session_id"])
	assert.Equal(t, "abc", rec["run_id"])
}

func TestNewRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	rl, err := New(Options{Dir: dir, Level: "warn"})
	require.NoError(t, err)
	rl.Logger.Info("hidden")
	rl.Logger.Warn("shown")
	require.NoError(t, rl.Close())

	data, err := os.ReadFile(rl.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewDefaultsToStateDir(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	rl, err := New(Options{})
	require.NoError(t, err)
	defer rl.Close()
	assert.Equal(t, filepath.Join(state, "worktimer", "logs"), filepath.Dir(rl.Path()))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
