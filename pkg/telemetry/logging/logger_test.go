package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/keeper/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.LoggingConfig
		wantErr bool
	}{
		{name: "defaults", config: config.LoggingConfig{}},
		{name: "text", config: config.LoggingConfig{Level: "debug", Format: "text"}},
		{name: "upper case level", config: config.LoggingConfig{Level: "WARN"}},
		{name: "invalid level", config: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l, err := NewWithWriter(tt.config, buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithWriter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && l.Slog() == nil {
				t.Error("expected a logger")
			}
		})
	}
}

func TestReconfigureKeepsDerivedLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{Level: "info"}, buf)
	if err != nil {
		t.Fatal(err)
	}

	derived := l.Slog().With("component", "test")
	derived.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}

	if err := l.Reconfigure(config.LoggingConfig{Level: "debug"}); err != nil {
		t.Fatal(err)
	}
	derived.Debug("shown")

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["msg"] != "shown" || lines[0]["component"] != "test" {
		t.Errorf("unexpected record %v", lines[0])
	}
}

func TestReconfigureFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{}, buf)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Reconfigure(config.LoggingConfig{Format: "text"}); err != nil {
		t.Fatal(err)
	}
	l.Slog().Info("plain", "k", "v")

	if out := buf.String(); !strings.Contains(out, "msg=plain") || !strings.Contains(out, "k=v") {
		t.Errorf("expected text output, got %q", out)
	}
	if got := l.Config().Format; got != "text" {
		t.Errorf("expected applied format text, got %q", got)
	}
}

func TestPrepareDiscardLeavesPipelineUntouched(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{Level: "info"}, buf)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "daemon.log")
	p, err := l.Prepare(config.LoggingConfig{Level: "debug", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	p.Discard()

	l.Slog().Debug("still filtered")
	l.Slog().Info("still buffered")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["msg"] != "still buffered" {
		t.Errorf("expected only the info line in the original output, got %v", lines)
	}
}

func TestFileOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{}, buf)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "daemon.log")
	if err := l.Reconfigure(config.LoggingConfig{Output: path}); err != nil {
		t.Fatal(err)
	}
	l.Slog().Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected record in file, got %q", data)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing on the previous output, got %q", buf.String())
	}

	_, err = l.Prepare(config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	if err == nil {
		t.Error("expected error for unwritable output")
	}
}

func TestTraceCorrelation(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := NewWithWriter(config.LoggingConfig{}, buf)
	if err != nil {
		t.Fatal(err)
	}

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.Slog().InfoContext(ctx, "traced")
	l.Slog().Info("untraced")

	lines := decodeLines(t, buf)
	if lines[0][TraceIDKey] != traceID.String() || lines[0][SpanIDKey] != spanID.String() {
		t.Errorf("expected trace fields, got %v", lines[0])
	}
	if _, ok := lines[1][TraceIDKey]; ok {
		t.Errorf("expected no trace fields, got %v", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warning", "Error", ""} {
		if _, err := parseLevel(s); err != nil {
			t.Errorf("parseLevel(%q) failed: %v", s, err)
		}
	}
	if _, err := parseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
