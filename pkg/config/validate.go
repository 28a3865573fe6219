package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Validate checks that the configuration can drive a Session.
func (c *Config) Validate() error {
	if err := c.validateBaseURL(); err != nil {
		return err
	}

	if _, err := c.Group(); err != nil {
		return fmt.Errorf("strength: %w", err)
	}

	for _, get := range []func() (time.Duration, error){
		c.GetTimeout, c.GetPingInterval, c.GetTimeSyncInterval, c.GetHTTPTimeout,
	} {
		if _, err := get(); err != nil {
			return err
		}
	}

	return c.validateLogging()
}

func (c *Config) validateBaseURL() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required (set it in the config file or %s)", envBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	if !slices.Contains([]string{"json", "human"}, c.Logging.Format) {
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	return nil
}
