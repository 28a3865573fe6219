package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/internal/logging"
)

func newTestLogger(level logging.LogLevel, format logging.LogFormat) (*logging.Logger, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	l := logging.New(level, format)
	l.SetOutput(&stdout, &stderr)
	return l, &stdout, &stderr
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLogger_JSON(t *testing.T) {
	l, stdout, stderr := newTestLogger(logging.LevelInfo, logging.FormatJSON)

	l.Info("login succeeded", map[string]any{"identity": "alice", "attempt": 1})

	entry := decode(t, stdout.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "login succeeded", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "alice", fields["identity"])
	assert.Equal(t, float64(1), fields["attempt"])
	assert.Empty(t, stderr.String())
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, stdout, stderr := newTestLogger(logging.LevelWarn, logging.FormatJSON)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("failed")

	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.Contains(t, stdout.String(), "shown")
	assert.Contains(t, stderr.String(), "failed")
}

func TestLogger_Human(t *testing.T) {
	l, stdout, _ := newTestLogger(logging.LevelDebug, logging.FormatHuman)

	l.Debug("ping", map[string]any{"status": 200, "identity": "bob"})

	out := stdout.String()
	assert.Contains(t, out, "debug: ping identity=bob status=200")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLogger_RedactsSecrets(t *testing.T) {
	l, stdout, _ := newTestLogger(logging.LevelInfo, logging.FormatJSON)

	l.Info("round 1", map[string]any{
		"A":        "61d5e490f6f1b795",
		"password": "password123",
		"identity": "alice",
		"request": map[string]any{
			"Authorization": "TIPI-TOKEN sessid=...",
		},
	})

	out := stdout.String()
	assert.NotContains(t, out, "password123")
	assert.NotContains(t, out, "61d5e490f6f1b795")
	assert.NotContains(t, out, "TIPI-TOKEN")
	assert.Contains(t, out, "alice")
}

func TestContextLogger(t *testing.T) {
	l, stdout, _ := newTestLogger(logging.LevelInfo, logging.FormatJSON)

	cl := l.With(map[string]any{"component": "session"}).With(map[string]any{"attempt_id": "x1"})
	cl.Info("attempt", map[string]any{"attempt": 2})

	fields := decode(t, stdout.String())["fields"].(map[string]any)
	assert.Equal(t, "session", fields["component"])
	assert.Equal(t, "x1", fields["attempt_id"])
	assert.Equal(t, float64(2), fields["attempt"])
}

func TestContextLogger_DoesNotShareFields(t *testing.T) {
	l, stdout, _ := newTestLogger(logging.LevelInfo, logging.FormatJSON)

	base := map[string]any{"component": "session"}
	cl := l.With(base)
	base["component"] = "mutated"

	cl.Info("x")
	fields := decode(t, stdout.String())["fields"].(map[string]any)
	assert.Equal(t, "session", fields["component"])
}

func TestParseLevelAndFormat(t *testing.T) {
	level, err := logging.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, level)

	_, err = logging.ParseLevel("verbose")
	assert.Error(t, err)

	format, err := logging.ParseFormat("human")
	require.NoError(t, err)
	assert.Equal(t, logging.FormatHuman, format)

	_, err = logging.ParseFormat("xml")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { logging.Discard().Error("nothing") })
}

func TestRedactor(t *testing.T) {
	r := logging.NewRedactor()

	out := r.RedactFields(map[string]any{"M1": "abc", "sess_id": "1"})
	assert.Equal(t, "[REDACTED]", out["M1"])
	assert.Equal(t, "1", out["sess_id"])

	r.AddSensitiveKey("Sess_ID")
	out = r.RedactFields(map[string]any{"sess_id": "1"})
	assert.Equal(t, "[REDACTED]", out["sess_id"])

	r.RemoveSensitiveKey("sess_id")
	out = r.RedactFields(map[string]any{"sess_id": "1"})
	assert.Equal(t, "1", out["sess_id"])

	assert.Nil(t, r.RedactFields(nil))
}
