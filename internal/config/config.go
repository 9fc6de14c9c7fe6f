// Package config resolves the application's configuration once at startup:
// XDG configuration directory, the settings file, and environment
// overrides. Everything downstream receives the resolved Config
// explicitly; nothing reads the environment later.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "rota"

	// SettingsFile is the settings filename inside the config directory.
	SettingsFile = "settings.json"

	// SessionFile is the stored identity credentials filename.
	SessionFile = "session.json"

	// DefaultNamespace scopes the user's document when no namespace is
	// configured.
	DefaultNamespace = "rota-default"

	// EnvNamespace overrides the configured namespace.
	EnvNamespace = "ROTA_NAMESPACE"

	// EnvBootstrapToken supplies the privileged sign-in token. It is only
	// ever read from the environment, never stored.
	EnvBootstrapToken = "ROTA_AUTH_TOKEN"
)

// Backend names accepted in settings.
const (
	BackendFirestore = "firestore"
	BackendRelay     = "relay"
)

// Settings is the on-disk shape of settings.json. Absent fields keep
// their defaults.
type Settings struct {
	Namespace string `json:"namespace,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Backend   string `json:"backend,omitempty"`
	RelayURL  string `json:"relay_url,omitempty"`
}

// Config holds the resolved configuration.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Namespace scopes the user's document. Defaults to DefaultNamespace.
	Namespace string

	// ProjectID is the Firestore project. Required for the firestore
	// backend.
	ProjectID string

	// APIKey is the identity API key. Required for the firestore backend.
	APIKey string

	// Backend selects the persistence backend, "firestore" or "relay".
	Backend string

	// RelayURL is the relay server base URL for the relay backend.
	RelayURL string

	// BootstrapToken is the privileged sign-in token from the
	// environment, empty when unset.
	BootstrapToken string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New resolves the configuration from the default or specified config
// directory. If configDir is empty, uses XDG_CONFIG_HOME/rota or
// $HOME/.config/rota. Resolution order per field: settings.json, then
// environment override, then built-in default.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:       dir,
		Namespace: DefaultNamespace,
		Backend:   BackendFirestore,
		RelayURL:  "http://localhost:8999",
	}

	if data, err := os.ReadFile(cfg.SettingsPath()); err == nil {
		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.SettingsPath(), err)
		}
		if s.Namespace != "" {
			cfg.Namespace = s.Namespace
		}
		if s.ProjectID != "" {
			cfg.ProjectID = s.ProjectID
		}
		if s.APIKey != "" {
			cfg.APIKey = s.APIKey
		}
		if s.Backend != "" {
			cfg.Backend = s.Backend
		}
		if s.RelayURL != "" {
			cfg.RelayURL = s.RelayURL
		}
	}

	if ns := os.Getenv(EnvNamespace); ns != "" {
		cfg.Namespace = ns
	}
	cfg.BootstrapToken = os.Getenv(EnvBootstrapToken)

	switch cfg.Backend {
	case BackendFirestore, BackendRelay:
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendFirestore, BackendRelay)
	}
	return cfg, nil
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

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the stored credentials file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if stored credentials exist.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the stored credentials file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}
