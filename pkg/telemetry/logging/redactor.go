package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "***"

// defaultSensitiveKeys are matched as substrings of lowercased attribute keys.
var defaultSensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"authorization", "credential",
	"private_key", "privatekey",
}

// valuePatterns scrub secrets embedded in otherwise harmless strings, such
// as a DSN or a header dump.
var valuePatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer " + Redacted},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token)=[^\s&;]+`), "$1=" + Redacted},
	{regexp.MustCompile(`://([^:/@\s]+):[^@/\s]+@`), "://$1:" + Redacted + "@"},
}

// Redactor hides sensitive attribute values in log records.
type Redactor struct {
	keys []string
}

// NewRedactor returns a Redactor matching the default sensitive keys plus
// extra.
func NewRedactor(extra []string) *Redactor {
	keys := make([]string, 0, len(defaultSensitiveKeys)+len(extra))
	keys = append(keys, defaultSensitiveKeys...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	return &Redactor{keys: keys}
}

// ReplaceAttr implements slog.HandlerOptions.ReplaceAttr.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.SourceKey) {
		return a
	}

	if r.isSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}

	v := a.Value.Resolve()
	if v.Kind() == slog.KindString {
		if s := RedactString(v.String()); s != v.String() {
			return slog.String(a.Key, s)
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.keys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactString scrubs embedded credentials from s.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range valuePatterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
