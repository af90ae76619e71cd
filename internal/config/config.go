// Package config handles XDG configuration directory and file paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "taskpad"

	// FirebaseFile holds the remote sync project settings.
	FirebaseFile = "firebase.json"

	// SessionFile is the persisted authenticated session.
	SessionFile = "session.json"

	// DBFile is the durable local task store.
	DBFile = "tasks.db"

	// LogFile receives diagnostic logging. Kept out of the terminal so
	// the TUI's screen stays clean.
	LogFile = "taskpad.log"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// LocalOnly disables remote sync even when firebase.json exists.
	LocalOnly bool

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Firebase is the contents of firebase.json: the Firestore project and
// the Identity Toolkit API key.
type Firebase struct {
	ProjectID string `json:"project_id"`
	APIKey    string `json:"api_key"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskpad or $HOME/.config/taskpad.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FirebasePath returns the path to the remote sync settings file.
func (c *Config) FirebasePath() string {
	return filepath.Join(c.Dir, FirebaseFile)
}

// SessionPath returns the path to the persisted session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// DBPath returns the path to the local task database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, DBFile)
}

// LogPath returns the path to the diagnostic log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasFirebase checks if remote sync settings exist.
func (c *Config) HasFirebase() bool {
	_, err := os.Stat(c.FirebasePath())
	return err == nil
}

// HasSession checks if a persisted session exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoteEnabled reports whether this run uses remote sync at all.
func (c *Config) RemoteEnabled() bool {
	return !c.LocalOnly && c.HasFirebase()
}

// LoadFirebase reads and validates firebase.json.
func (c *Config) LoadFirebase() (Firebase, error) {
	data, err := os.ReadFile(c.FirebasePath())
	if err != nil {
		return Firebase{}, fmt.Errorf("read %s: %w", FirebaseFile, err)
	}
	var fb Firebase
	if err := json.Unmarshal(data, &fb); err != nil {
		return Firebase{}, fmt.Errorf("invalid %s: %w", FirebaseFile, err)
	}
	if fb.ProjectID == "" || fb.APIKey == "" {
		return Firebase{}, fmt.Errorf("%s must set project_id and api_key", FirebaseFile)
	}
	return fb, nil
}
