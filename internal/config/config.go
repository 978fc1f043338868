// Package config loads application configuration from a YAML file with
// environment variable substitution and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable pointing at the config file.
const EnvConfigPath = "EVENTSCOUT_CONFIG"

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("30s", "5m") as well as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultFileName is the config file looked up in the working directory when
// neither a flag nor EVENTSCOUT_CONFIG is set.
const DefaultFileName = "eventscout.yaml"

// Config is the application configuration.
type Config struct {
	// API is the remote events catalog.
	API APIConfig `yaml:"api"`
	// Storage configures the persisted state database.
	Storage StorageConfig `yaml:"storage"`
	// Search configures query defaults.
	Search SearchConfig `yaml:"search"`
	// Auth configures token signing for the mock auth backend.
	Auth AuthConfig `yaml:"auth"`
}

type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

type StorageConfig struct {
	// Path is the SQLite database file. Empty means a per-user default under
	// the OS config directory.
	Path string `yaml:"path"`
}

type SearchConfig struct {
	PageSize  int      `yaml:"page_size"`
	StaleTime Duration `yaml:"stale_time"`
}

type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://app.ticketmaster.com/discovery/v2",
			Timeout: Duration(10 * time.Second),
		},
		Search: SearchConfig{
			PageSize:  20,
			StaleTime: 0,
		},
		Auth: AuthConfig{
			Secret: "eventscout-dev-secret",
		},
	}
}

// Load reads the config file at path, expanding ${VAR} references from the
// environment, and applies defaults for anything unset. A missing file is
// not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be positive")
	}
	if c.Search.StaleTime < 0 {
		return fmt.Errorf("search.stale_time must not be negative")
	}
	return nil
}

// ResolvePath picks the config file path: the explicit flag value when set,
// then EVENTSCOUT_CONFIG, then the default file name.
func ResolvePath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); strings.TrimSpace(env) != "" {
		return env
	}
	return DefaultFileName
}

// StoragePath returns the configured state database path, falling back to a
// per-user location.
func (c *Config) StoragePath() (string, error) {
	if strings.TrimSpace(c.Storage.Path) != "" {
		return c.Storage.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	full := filepath.Join(dir, "eventscout")
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(full, "state.db"), nil
}
