package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/pkg/config"
)

// isolate points the user directories at a temp dir and clears TIPI_* vars.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{
		"TIPI_BASE_URL", "TIPI_NAMESPACE", "TIPI_TIMEOUT",
		"TIPI_STRENGTH", "TIPI_STORE_PATH", "TIPI_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)
	t.Setenv("TIPI_BASE_URL", "https://id.example.com/api")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://id.example.com/api", cfg.BaseURL)
	assert.Equal(t, 1024, cfg.Strength)
	assert.Equal(t, "", cfg.Namespace)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(dir, "cache", "tipi", "session.json"), cfg.Store.Path)

	timeout, err := cfg.GetTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, timeout)

	ping, err := cfg.GetPingInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ping)

	resync, err := cfg.GetTimeSyncInterval()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, resync)

	httpTimeout, err := cfg.GetHTTPTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, httpTimeout)

	group, err := cfg.Group()
	require.NoError(t, err)
	assert.Equal(t, 1024, group.Strength)
}

func TestLoad_DefaultFileLocation(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "tipi", "config.yaml"), `
base_url: http://localhost:8080
namespace: notes
strength: 2048
`)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "notes", cfg.Namespace)
	assert.Equal(t, 2048, cfg.Strength)
}

func TestLoad_FromFile(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		check     func(t *testing.T, cfg *config.Config)
		wantError bool
	}{
		{
			name: "all fields",
			content: `base_url: https://id.example.com
namespace: app
strength: 3072
session:
  timeout: 10m
  ping_interval: 15s
  time_sync_interval: 1h
store:
  path: /tmp/tipi-record.json
logging:
  level: debug
  format: human
http:
  timeout: 5s
`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 3072, cfg.Strength)
				assert.Equal(t, "/tmp/tipi-record.json", cfg.Store.Path)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "human", cfg.Logging.Format)
				d, err := cfg.GetTimeout()
				require.NoError(t, err)
				assert.Equal(t, 10*time.Minute, d)
				d, err = cfg.GetPingInterval()
				require.NoError(t, err)
				assert.Equal(t, 15*time.Second, d)
				d, err = cfg.GetHTTPTimeout()
				require.NoError(t, err)
				assert.Equal(t, 5*time.Second, d)
			},
		},
		{
			name:    "partial file keeps defaults",
			content: `base_url: https://id.example.com`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 1024, cfg.Strength)
				assert.Equal(t, "30m", cfg.Session.Timeout)
			},
		},
		{name: "invalid yaml", content: `base_url: [oops`, wantError: true},
		{name: "unknown strength", content: "base_url: https://x\nstrength: 1000", wantError: true},
		{name: "missing base url", content: `namespace: app`, wantError: true},
		{name: "bad scheme", content: `base_url: ftp://x`, wantError: true},
		{name: "no host", content: `base_url: "https://"`, wantError: true},
		{name: "negative timeout", content: "base_url: https://x\nsession:\n  timeout: -1m", wantError: true},
		{name: "unparsable interval", content: "base_url: https://x\nsession:\n  ping_interval: often", wantError: true},
		{name: "bad log level", content: "base_url: https://x\nlogging:\n  level: loud", wantError: true},
		{name: "bad log format", content: "base_url: https://x\nlogging:\n  format: xml", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "custom.yaml")
			writeFile(t, path, tt.content)

			cfg, err := config.Load(path)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	t.Setenv("TIPI_BASE_URL", "https://id.example.com")

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `base_url: https://file.example.com
namespace: from-file
strength: 2048
`)
	t.Setenv("TIPI_BASE_URL", "https://env.example.com")
	t.Setenv("TIPI_NAMESPACE", "from-env")
	t.Setenv("TIPI_STRENGTH", "4096")
	t.Setenv("TIPI_TIMEOUT", "5m")
	t.Setenv("TIPI_STORE_PATH", filepath.Join(dir, "rec.json"))
	t.Setenv("TIPI_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.Namespace)
	assert.Equal(t, 4096, cfg.Strength)
	assert.Equal(t, "5m", cfg.Session.Timeout)
	assert.Equal(t, filepath.Join(dir, "rec.json"), cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidStrengthEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TIPI_BASE_URL", "https://id.example.com")
	t.Setenv("TIPI_STRENGTH", "strong")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	assert.Equal(t, 1024, cfg.Strength)
	assert.Error(t, cfg.Validate(), "default config has no base URL")

	cfg.BaseURL = "http://127.0.0.1:9000"
	assert.NoError(t, cfg.Validate())
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, config.EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}
