// Package logging provides leveled JSON or human-readable logging with
// redaction of SRP and session secrets.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel orders entries by severity.
type LogLevel string

// Levels, lowest first.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// LogFormat selects how entries are rendered.
type LogFormat string

// Supported formats.
const (
	FormatJSON  LogFormat = "json"
	FormatHuman LogFormat = "human"
)

// ParseLevel converts a configuration string to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(s))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// ParseFormat converts a configuration string to a LogFormat.
func ParseFormat(s string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// Logger writes structured entries. Error entries go to stderr, the rest
// to stdout.
type Logger struct {
	level    LogLevel
	format   LogFormat
	redactor *Redactor
	now      func() time.Time

	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a Logger writing to the process streams.
func New(level LogLevel, format LogFormat) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		redactor: NewRedactor(),
		now:      time.Now,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// Discard returns a Logger that drops every entry.
func Discard() *Logger {
	l := New(LevelError, FormatJSON)
	l.SetOutput(io.Discard, io.Discard)
	return l
}

// SetOutput replaces the output writers.
func (l *Logger) SetOutput(stdout, stderr io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = stdout
	l.stderr = stderr
}

// Redactor returns the redactor so callers can extend its key list.
func (l *Logger) Redactor() *Redactor { return l.redactor }

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, mergeFields(fields...))
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, mergeFields(fields...))
}

func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, mergeFields(fields...))
}

// Error logs to stderr; the other levels go to stdout.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(LevelError, msg, mergeFields(fields...))
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *ContextLogger {
	return &ContextLogger{logger: l, fields: maps.Clone(fields)}
}

func (l *Logger) log(level LogLevel, msg string, fields map[string]any) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	entry := logEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Level:     string(level),
		Message:   msg,
		Fields:    l.redactor.RedactFields(fields),
	}

	var out string
	if l.format == FormatHuman {
		out = formatHuman(entry)
	} else {
		out = formatJSON(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.stdout
	if level == LevelError {
		w = l.stderr
	}
	_, _ = io.WriteString(w, out)
}

func formatJSON(entry logEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"timestamp":%q,"level":"error","message":"failed to marshal log entry: %s"}`+"\n",
			entry.Timestamp, err)
	}
	return string(data) + "\n"
}

func formatHuman(entry logEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", entry.Timestamp, entry.Level, entry.Message)
	for _, k := range slices.Sorted(maps.Keys(entry.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	b.WriteString("\n")
	return b.String()
}

func mergeFields(fields ...map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	merged := make(map[string]any)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	return merged
}

// ContextLogger wraps a Logger with fixed fields.
type ContextLogger struct {
	logger *Logger
	fields map[string]any
}

// With returns a logger carrying both the current and the given fields.
func (cl *ContextLogger) With(fields map[string]any) *ContextLogger {
	return &ContextLogger{logger: cl.logger, fields: mergeFields(cl.fields, fields)}
}

func (cl *ContextLogger) Debug(msg string, fields ...map[string]any) {
	cl.logger.Debug(msg, cl.merge(fields))
}

func (cl *ContextLogger) Info(msg string, fields ...map[string]any) {
	cl.logger.Info(msg, cl.merge(fields))
}

func (cl *ContextLogger) Warn(msg string, fields ...map[string]any) {
	cl.logger.Warn(msg, cl.merge(fields))
}

func (cl *ContextLogger) Error(msg string, fields ...map[string]any) {
	cl.logger.Error(msg, cl.merge(fields))
}

func (cl *ContextLogger) merge(fields []map[string]any) map[string]any {
	return mergeFields(append([]map[string]any{cl.fields}, fields...)...)
}
