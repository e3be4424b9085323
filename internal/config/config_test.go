package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Feature: worktimer, Property 6: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasTarget") {
			cfg.TargetMinutes = rapid.IntRange(1, 600).Draw(t, "target")
		}
		if rapid.Bool().Draw(t, "hasAPIURL") {
			cfg.APIURL = nonEmptyString.Draw(t, "apiURL")
		}
		if rapid.Bool().Draw(t, "hasTimeLayout") {
			cfg.TimeLayout = nonEmptyString.Draw(t, "timeLayout")
		}
		if rapid.Bool().Draw(t, "hasProjectName") {
			cfg.ProjectName = nonEmptyString.Draw(t, "projectName")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "APIURL", global.APIURL, project.APIURL, defaults.APIURL, merged.APIURL)
		checkStringField(t, "TimeLayout", global.TimeLayout, project.TimeLayout, defaults.TimeLayout, merged.TimeLayout)
		checkStringField(t, "ProjectName", global.ProjectName, project.ProjectName, defaults.ProjectName, merged.ProjectName)

		want := defaults.TargetMinutes
		switch {
		case project.TargetMinutes > 0:
			want = project.TargetMinutes
		case global.TargetMinutes > 0:
			want = global.TargetMinutes
		}
		if merged.TargetMinutes != want {
			t.Fatalf("TargetMinutes: expected %d, got %d", want, merged.TargetMinutes)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	d := Defaults()
	assert.Equal(t, 1, d.TargetMinutes)
	assert.Equal(t, "https://project-timer-backend.onrender.com/api/data", d.APIURL)
	assert.Equal(t, "application/json", d.ContentType)
	assert.Equal(t, "15:04:05", d.TimeLayout)
	assert.Equal(t, "info", d.LogLevel)
	assert.Equal(t, filepath.Join("/data", "worktimer", "ledger.db"), d.LedgerPath)
	assert.Equal(t, 30*time.Second, d.Timeout())
}

func TestTimeoutFallsBack(t *testing.T) {
	assert.Equal(t, 5*time.Second, Config{RequestTimeout: "5s"}.Timeout())
	assert.Equal(t, 30*time.Second, Config{RequestTimeout: "soon"}.Timeout())
	assert.Equal(t, 30*time.Second, Config{RequestTimeout: "-1s"}.Timeout())
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Defaults(), *cfg)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadEachFormat(t *testing.T) {
	files := map[string]string{
		"config.json": `{"target_minutes": 25, "project_name": "Apollo"}`,
		"config.toml": "target_minutes = 25\nproject_name = \"Apollo\"\n",
		"config.yaml": "target_minutes: 25\nproject_name: Apollo\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", tmp)
			dir := filepath.Join(tmp, "worktimer")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

			cfg, err := LoadGlobal()
			require.NoError(t, err)
			assert.Equal(t, 25, cfg.TargetMinutes)
			assert.Equal(t, "Apollo", cfg.ProjectName)
		})
	}
}

func TestLoadPrefersJSONOverTOMLOverYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(".worktimer.yaml", []byte("project_name: yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(".worktimer.toml", []byte("project_name = \"toml\"\n"), 0o644))

	cfg, err := LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "toml", cfg.ProjectName)

	require.NoError(t, os.WriteFile(".worktimer.json", []byte(`{"project_name":"json"}`), 0o644))
	cfg, err = LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.ProjectName)
}

func TestLoadMergesProjectOverGlobal(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	dir := filepath.Join(tmp, "worktimer")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("target_minutes = 50\nproject_name = \"global\"\napi_url = \"http://global\"\n"), 0o644))

	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".worktimer.yaml", []byte("project_name: local\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.TargetMinutes)
	assert.Equal(t, "local", cfg.ProjectName)
	assert.Equal(t, "http://global", cfg.APIURL)
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	cfgDir := filepath.Join(tmp, "worktimer")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644))

	_, err := LoadGlobal()
	require.Error(t, err)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	assert.Contains(t, err.Error(), filepath.Join(cfgDir, "config.json"))
}

func TestEncodeDecodeFormats(t *testing.T) {
	cfg := Config{TargetMinutes: 5, ProjectName: "Apollo", RequestTimeout: "10s"}
	for format, ext := range map[string]string{"json": ".json", "toml": ".toml", "yaml": ".yaml"} {
		data, err := Encode(format, cfg)
		require.NoError(t, err, format)
		var back Config
		require.NoError(t, Decode(ext, data, &back), format)
		assert.Equal(t, cfg, back, format)
	}
	_, err := Encode("ini", cfg)
	assert.Error(t, err)
	assert.Error(t, Decode(".ini", nil, &Config{}))
}

func TestPathsListsEveryFormat(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	paths, err := Paths()
	require.NoError(t, err)
	require.Len(t, paths, 6)
	assert.Equal(t, filepath.Join("/cfg", "worktimer", "config.json"), paths[0])
	assert.Equal(t, ".worktimer.yaml", filepath.Base(paths[5]))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_minutes": 1}`), 0o644))

	w := &Watcher{
		Paths: []string{path},
		Load: func() (Config, error) {
			cfg, err := loadFirst(filepath.Join(dir, "config"), true)
			if err != nil {
				return Config{}, err
			}
			return Merge(cfg, nil), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan Config, 16)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(c Config) { changes <- c }) }()

	// The watcher may not be registered yet; keep writing until it reports.
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(path, []byte(`{"target_minutes": 7}`), 0o644))
		select {
		case c := <-changes:
			assert.Equal(t, 7, c.TargetMinutes)
			cancel()
			require.NoError(t, <-done)
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("watcher never reported the change")
		}
	}
}
