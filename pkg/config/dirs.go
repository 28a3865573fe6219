package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "tipi"

// UserConfigDir returns the OS-specific configuration directory for tipi,
// e.g. ~/.config/tipi on Linux.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// UserCacheDir returns the OS-specific cache directory for tipi,
// e.g. ~/.cache/tipi on Linux.
func UserCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, appName), nil
}

// EnsureDir creates dir and its parents with 0700 permissions.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
