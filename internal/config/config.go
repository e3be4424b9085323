package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all configurable worktimer settings.
type Config struct {
	TargetMinutes  int    `json:"target_minutes,omitempty" toml:"target_minutes,omitempty" yaml:"target_minutes,omitempty"`
	APIURL         string `json:"api_url,omitempty" toml:"api_url,omitempty" yaml:"api_url,omitempty"`
	ContentType    string `json:"content_type,omitempty" toml:"content_type,omitempty" yaml:"content_type,omitempty"`
	TimeLayout     string `json:"time_layout,omitempty" toml:"time_layout,omitempty" yaml:"time_layout,omitempty"` // Go reference layout
	ProjectName    string `json:"project_name,omitempty" toml:"project_name,omitempty" yaml:"project_name,omitempty"`
	ProjectNumber  string `json:"project_number,omitempty" toml:"project_number,omitempty" yaml:"project_number,omitempty"`
	LedgerPath     string `json:"ledger_path,omitempty" toml:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`
	LogLevel       string `json:"log_level,omitempty" toml:"log_level,omitempty" yaml:"log_level,omitempty"`
	RequestTimeout string `json:"request_timeout,omitempty" toml:"request_timeout,omitempty" yaml:"request_timeout,omitempty"` // e.g. "30s"
}

const (
	DefaultAPIURL         = "https://project-timer-backend.onrender.com/api/data"
	DefaultContentType    = "application/json"
	DefaultTimeLayout     = "15:04:05"
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = "30s"
)

// Extensions lists the supported config formats in lookup order.
var Extensions = []string{".json", ".toml", ".yaml"}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		TargetMinutes:  1,
		APIURL:         DefaultAPIURL,
		ContentType:    DefaultContentType,
		TimeLayout:     DefaultTimeLayout,
		LedgerPath:     filepath.Join(dataDir(), "ledger.db"),
		LogLevel:       DefaultLogLevel,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Timeout parses RequestTimeout, falling back to the default.
func (c Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.RequestTimeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultRequestTimeout)
	return d
}

// GlobalDir is $XDG_CONFIG_HOME/worktimer or ~/.config/worktimer.
func GlobalDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "worktimer"), nil
}

func dataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "worktimer")
}

// LoadGlobal reads config.{json,toml,yaml} from GlobalDir.
// Returns defaults if no file is present.
func LoadGlobal() (*Config, error) {
	dir, err := GlobalDir()
	if err != nil {
		return nil, err
	}
	return loadFirst(filepath.Join(dir, "config"), true)
}

// LoadProject reads .worktimer.{json,toml,yaml} in the current working
// directory. Returns nil (no error) if no file is present.
func LoadProject() (*Config, error) {
	return loadFirst(".worktimer", false)
}

// Load returns the merged global and project configuration.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	return Merge(global, project), nil
}

// Paths returns every file Load may read, present or not.
func Paths() ([]string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, ext := range Extensions {
		paths = append(paths, filepath.Join(dir, "config"+ext))
	}
	for _, ext := range Extensions {
		if abs, err := filepath.Abs(".worktimer" + ext); err == nil {
			paths = append(paths, abs)
		}
	}
	return paths, nil
}

// loadFirst reads the first of base+ext that exists, in Extensions order.
// If returnDefaults is true, returns defaults when none exists.
// If returnDefaults is false, returns nil when none exists.
func loadFirst(base string, returnDefaults bool) (*Config, error) {
	for _, ext := range Extensions {
		cfg, err := loadFile(base + ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	if returnDefaults {
		d := Defaults()
		return &d, nil
	}
	return nil, nil
}

// loadFile reads and parses the config file at path, choosing the decoder by
// extension.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := Decode(filepath.Ext(path), data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Decode parses data in the format named by ext (".json", ".toml", ".yaml").
func Decode(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

// Encode renders cfg in format ("json", "toml" or "yaml").
func Encode(format string, cfg Config) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(cfg, "", "  ")
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "yaml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.TargetMinutes > 0 {
			result.TargetMinutes = layer.TargetMinutes
		}
		overlay(&result.APIURL, layer.APIURL)
		overlay(&result.ContentType, layer.ContentType)
		overlay(&result.TimeLayout, layer.TimeLayout)
		overlay(&result.ProjectName, layer.ProjectName)
		overlay(&result.ProjectNumber, layer.ProjectNumber)
		overlay(&result.LedgerPath, layer.LedgerPath)
		overlay(&result.LogLevel, layer.LogLevel)
		overlay(&result.RequestTimeout, layer.RequestTimeout)
	}
	return result
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
