// Package redact strips credentials from log output before it leaves the
// process.
//
// The completion-service API key and the Matrix access token are the only
// secrets grace handles. Neither may appear in log lines, error strings
// surfaced to operators, or the effective-config dump printed at startup.
package redact

import "strings"

const placeholder = "[REDACTED]"

// String replaces every occurrence of each sensitive value in s with
// [REDACTED]. Values shorter than 4 characters are skipped so that short
// common substrings are left intact.
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}

// Error wraps err so that its message has every sensitive value replaced.
// The original error stays reachable through errors.Is and errors.As.
func Error(err error, sensitiveValues ...string) error {
	if err == nil {
		return nil
	}
	return &redactedError{err: err, values: sensitiveValues}
}

type redactedError struct {
	err    error
	values []string
}

func (e *redactedError) Error() string { return String(e.err.Error(), e.values...) }

func (e *redactedError) Unwrap() error { return e.err }

// Map returns a shallow copy of m with non-empty string values replaced for
// every key that looks like it names a credential.
func Map(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if str, ok := v.(string); ok && str != "" && isSensitiveKey(k) {
			out[k] = placeholder
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range []string{"password", "token", "secret", "api_key", "apikey", "credential"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
