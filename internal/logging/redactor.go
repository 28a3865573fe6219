package logging

import (
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor masks sensitive values in log fields by key, case-insensitively.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a Redactor covering credentials, SRP values and
// session material.
func NewRedactor() *Redactor {
	keys := []string{
		// Credentials
		"password", "clear", "secret", "verifier",

		// SRP exchange; public values are masked too since they identify
		// an exchange
		"a", "b", "s", "salt", "m1", "m2",

		// Session material
		"key", "session_key", "token", "authorization", "code", "sign",
	}
	r := &Redactor{sensitiveKeys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		r.sensitiveKeys[k] = true
	}
	return r
}

// AddSensitiveKey adds a key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RemoveSensitiveKey removes a key from the redaction list.
func (r *Redactor) RemoveSensitiveKey(key string) {
	delete(r.sensitiveKeys, strings.ToLower(key))
}

// RedactFields returns a copy of fields with sensitive values masked,
// descending into nested maps.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case r.sensitiveKeys[strings.ToLower(k)]:
			redacted[k] = redactedValue
		default:
			if nested, ok := v.(map[string]any); ok {
				redacted[k] = r.RedactFields(nested)
			} else {
				redacted[k] = v
			}
		}
	}
	return redacted
}
