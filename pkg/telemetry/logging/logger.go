package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mercator-hq/keeper/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain text format.
	FormatText LogFormat = "text"
)

// Logger owns the process log pipeline. The *slog.Logger returned by Slog
// stays valid for the life of the process; Reconfigure changes its level,
// format, output and redaction in place.
type Logger struct {
	// level is shared by every handler generation
	level *slog.LevelVar

	// root holds the current handler
	root *handlerCell

	// slog is the stable logger handed to the rest of the daemon
	slog *slog.Logger

	mu sync.Mutex

	// current is the applied configuration
	current config.LoggingConfig

	// out is the open output, closed when replaced
	out *output

	// stdout and stderr can be replaced in tests
	stdout io.Writer
	stderr io.Writer
}

// New creates a Logger from cfg. Zero-valued fields take their defaults.
func New(cfg config.LoggingConfig) (*Logger, error) {
	return newLogger(cfg, os.Stdout, os.Stderr)
}

// NewWithWriter creates a Logger whose "stdout" and "stderr" outputs both
// write to w.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	return newLogger(cfg, w, w)
}

func newLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) (*Logger, error) {
	l := &Logger{
		level:  new(slog.LevelVar),
		root:   &handlerCell{},
		stdout: stdout,
		stderr: stderr,
	}
	l.slog = slog.New(&swapHandler{root: l.root})

	p, err := l.Prepare(cfg)
	if err != nil {
		return nil, err
	}
	p.Apply()
	return l, nil
}

// Slog returns the stable structured logger.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// Config returns the applied configuration.
func (l *Logger) Config() config.LoggingConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Reconfigure prepares and applies cfg.
func (l *Logger) Reconfigure(cfg config.LoggingConfig) error {
	p, err := l.Prepare(cfg)
	if err != nil {
		return err
	}
	p.Apply()
	return nil
}

// Close closes a file output. Later log records go to stderr.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil || l.out.closer == nil {
		return nil
	}
	err := l.out.closer.Close()
	l.out = nil
	l.root.store(l.buildHandler(l.current, l.stderr))
	return err
}

// Prepared is a validated logging configuration whose output is already
// open. Exactly one of Apply or Discard must be called.
type Prepared struct {
	l     *Logger
	cfg   config.LoggingConfig
	level slog.Level
	out   *output
	// reused is set when out is the already-applied output
	reused bool
}

// Prepare parses cfg and opens its output without touching the live
// pipeline.
func (l *Logger) Prepare(cfg config.LoggingConfig) (*Prepared, error) {
	applyDefaults(&cfg)

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if _, err := parseFormat(cfg.Format); err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p := &Prepared{l: l, cfg: cfg, level: level}
	if l.out != nil && l.current.Output == cfg.Output {
		p.out, p.reused = l.out, true
		return p, nil
	}

	out, err := l.open(cfg.Output)
	if err != nil {
		return nil, err
	}
	p.out = out
	return p, nil
}

// Apply swaps the prepared configuration into the live pipeline.
func (p *Prepared) Apply() {
	l := p.l
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.out
	l.out = p.out
	l.current = p.cfg
	l.level.Set(p.level)
	l.root.store(l.buildHandler(p.cfg, p.out.w))

	if old != nil && old != p.out && old.closer != nil {
		_ = old.closer.Close()
	}
}

// Discard releases an output opened by Prepare.
func (p *Prepared) Discard() {
	if p.reused || p.out.closer == nil {
		return
	}
	_ = p.out.closer.Close()
}

type output struct {
	w      io.Writer
	closer io.Closer
}

func (l *Logger) open(dest string) (*output, error) {
	switch strings.ToLower(dest) {
	case "stdout":
		return &output{w: l.stdout}, nil
	case "stderr", "":
		return &output{w: l.stderr}, nil
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}
	return &output{w: f, closer: f}, nil
}

func (l *Logger) buildHandler(cfg config.LoggingConfig, w io.Writer) slog.Handler {
	redactor := NewRedactor(cfg.RedactKeys)
	opts := &slog.HandlerOptions{
		Level:       l.level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: redactor.ReplaceAttr,
	}

	format, _ := parseFormat(cfg.Format)
	if format == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func applyDefaults(cfg *config.LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = config.DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = config.DefaultLogFormat
	}
	if cfg.Output == "" {
		cfg.Output = config.DefaultLogOutput
	}
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
