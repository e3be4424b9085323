// Package profile manages the user's persistent worktimer profile: who the
// records are filed under and how to reach the record store. It is stored at
// ~/.config/worktimer/profile.json, created once via the interactive setup
// flow and referenced on every post.
package profile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/worktimer/internal/config"
)

// Profile holds user-level settings set during first-run setup.
type Profile struct {
	UserName string `json:"user_name"`
	UserCode string `json:"user_code"`
	AppID    string `json:"app_id"`
	APIToken string `json:"api_token"`
}

// Ready reports whether the profile has what a post needs.
func (p *Profile) Ready() bool {
	return p != nil && p.AppID != "" && p.APIToken != ""
}

// Path returns the path to the profile file.
func Path() (string, error) {
	dir, err := config.GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'worktimer setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile atomically with owner-only permissions, since it
// carries the API token.
func Save(prof *Profile) (err error) {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), "profile-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err = os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// RunSetup runs the interactive setup wizard on in/out and returns the
// resulting profile. If existing is non-nil, it supplies the default for each
// prompt (edit mode). The token is never echoed back as a default.
func RunSetup(existing *Profile, in io.Reader, out io.Writer) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal, shown string) (string, error) {
		if shown != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, shown)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   worktimer: first-time setup   │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	if prof.UserName, err = ask("  Your name (creator of records)", prof.UserName, prof.UserName); err != nil {
		return nil, err
	}
	if prof.UserCode, err = ask("  Your user code", prof.UserCode, prof.UserCode); err != nil {
		return nil, err
	}
	if prof.AppID, err = ask("  App ID", prof.AppID, prof.AppID); err != nil {
		return nil, err
	}
	if prof.APIToken, err = ask("  API token (X-Cybozu-API-Token)", prof.APIToken, mask(prof.APIToken)); err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}

func mask(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
