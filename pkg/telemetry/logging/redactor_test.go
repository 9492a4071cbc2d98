package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"mercator-hq/keeper/pkg/config"
)

func TestRedactString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "listening on :8080", "listening on :8080"},
		{"bearer", "Authorization: Bearer abc.def-ghi", "Authorization: Bearer ***"},
		{"query secret", "dsn?password=hunter2&mode=rw", "dsn?password=***&mode=rw"},
		{"url userinfo", "postgres://app:hunter2@db:5432/app", "postgres://app:***@db:5432/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReplaceAttr(t *testing.T) {
	r := NewRedactor([]string{" Session_ID "})

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive key", slog.String("api_key", "sk-123"), Redacted},
		{"case insensitive", slog.String("DB_Password", "x"), Redacted},
		{"extra key", slog.String("session_id", "abc"), Redacted},
		{"non string value", slog.Int("token_count", 5), Redacted},
		{"harmless", slog.String("path", "/etc/keeper"), "/etc/keeper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("ReplaceAttr(%v) = %q, want %q", tt.attr, got.Value.String(), tt.want)
			}
		})
	}

	level := slog.String(slog.LevelKey, "INFO")
	if got := r.ReplaceAttr(nil, level); !got.Equal(level) {
		t.Errorf("expected built-in keys to pass through, got %v", got)
	}
}

func TestLoggerRedacts(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{RedactKeys: []string{"tenant"}}, buf)
	if err != nil {
		t.Fatal(err)
	}

	l.Slog().Info("connected", "secret", "s3cr3t", "tenant", "acme", "peer", "10.0.0.1")

	lines := decodeLines(t, buf)
	if lines[0]["secret"] != Redacted || lines[0]["tenant"] != Redacted {
		t.Errorf("expected sensitive fields redacted, got %v", lines[0])
	}
	if lines[0]["peer"] != "10.0.0.1" {
		t.Errorf("expected peer untouched, got %v", lines[0]["peer"])
	}
}
