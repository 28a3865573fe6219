// Package config loads the settings a Session is built from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fzdarsky/tipi/pkg/srp"
)

const (
	configFileName = "config.yaml"
	recordFileName = "session.json"

	envBaseURL   = "TIPI_BASE_URL"
	envNamespace = "TIPI_NAMESPACE"
	envTimeout   = "TIPI_TIMEOUT"
	envStrength  = "TIPI_STRENGTH"
	envStorePath = "TIPI_STORE_PATH"
	envLogLevel  = "TIPI_LOG_LEVEL"

	defaultTimeout          = "30m"
	defaultPingInterval     = "60s"
	defaultTimeSyncInterval = "30m"
	defaultHTTPTimeout      = "30s"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
)

// Config holds the client settings.
type Config struct {
	BaseURL   string          `yaml:"base_url"`
	Namespace string          `yaml:"namespace"`
	Strength  int             `yaml:"strength"`
	Session   SessionSettings `yaml:"session"`
	Store     StoreSettings   `yaml:"store"`
	Logging   LoggingSettings `yaml:"logging"`
	HTTP      HTTPSettings    `yaml:"http"`
}

// SessionSettings controls session lifetime and background timers.
type SessionSettings struct {
	Timeout          string `yaml:"timeout"`
	PingInterval     string `yaml:"ping_interval"`
	TimeSyncInterval string `yaml:"time_sync_interval"`
}

// StoreSettings locates the persisted record. An empty path keeps the
// record in memory only.
type StoreSettings struct {
	Path string `yaml:"path"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPSettings configures the Identity Service transport.
type HTTPSettings struct {
	Timeout string `yaml:"timeout"`
}

// Default returns a configuration with every default applied and no base URL.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load builds the configuration from, lowest priority first, defaults, the
// YAML file and TIPI_* environment variables, then validates it.
//
// An empty path reads <UserConfigDir>/tipi/config.yaml if it exists; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	optional := path == ""
	if optional {
		dir, err := UserConfigDir()
		if err == nil {
			path = filepath.Join(dir, configFileName)
		}
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if !optional || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the host application
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv(envBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(envNamespace); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv(envTimeout); v != "" {
		c.Session.Timeout = v
	}
	if v := os.Getenv(envStrength); v != "" {
		strength, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envStrength, v, err)
		}
		c.Strength = strength
	}
	if v := os.Getenv(envStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strength == 0 {
		c.Strength = srp.DefaultStrength
	}
	if c.Session.Timeout == "" {
		c.Session.Timeout = defaultTimeout
	}
	if c.Session.PingInterval == "" {
		c.Session.PingInterval = defaultPingInterval
	}
	if c.Session.TimeSyncInterval == "" {
		c.Session.TimeSyncInterval = defaultTimeSyncInterval
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = defaultHTTPTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Store.Path == "" {
		if dir, err := UserCacheDir(); err == nil {
			c.Store.Path = filepath.Join(dir, recordFileName)
		}
	}
}

// GetTimeout returns how long a session stays valid after its last heartbeat.
func (c *Config) GetTimeout() (time.Duration, error) {
	return parsePositive("session.timeout", c.Session.Timeout)
}

// GetPingInterval returns the liveness ping period.
func (c *Config) GetPingInterval() (time.Duration, error) {
	return parsePositive("session.ping_interval", c.Session.PingInterval)
}

// GetTimeSyncInterval returns the clock resynchronization period.
func (c *Config) GetTimeSyncInterval() (time.Duration, error) {
	return parsePositive("session.time_sync_interval", c.Session.TimeSyncInterval)
}

// GetHTTPTimeout returns the per-request timeout.
func (c *Config) GetHTTPTimeout() (time.Duration, error) {
	return parsePositive("http.timeout", c.HTTP.Timeout)
}

// Group returns the SRP group selected by Strength.
func (c *Config) Group() (*srp.Group, error) {
	return srp.Lookup(c.Strength)
}

func parsePositive(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
