package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/keeper/pkg/event"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// Config describes what to watch.
type Config struct {
	// Paths are configuration files or directories. A file is watched
	// through its parent directory so atomic replacement by editors and
	// config management is seen.
	Paths []string

	// Extensions limits events inside watched directories
	// (default: .yaml, .yml, .toml, .json).
	Extensions []string

	// Debounce is the quiet period before a reload is posted.
	Debounce time.Duration
}

// Watcher posts a reload when watched configuration changes.
type Watcher struct {
	cfg      Config
	poster   event.Poster
	logger   *slog.Logger
	debounce *Debouncer

	// files are watched file paths; dirs are watched directories
	files   map[string]bool
	dirs    map[string]bool
	enabled atomic.Bool
	running atomic.Bool
}

// New creates a Watcher. It is enabled until SetEnabled(false).
func New(cfg Config, poster event.Poster, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".yaml", ".yml", ".toml", ".json"}
	}

	w := &Watcher{
		cfg:      cfg,
		poster:   poster,
		logger:   logger.With("component", "watch"),
		debounce: NewDebouncer(cfg.Debounce),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	w.enabled.Store(true)
	return w
}

// SetEnabled pauses or resumes reload posting. Events seen while paused
// are dropped.
func (w *Watcher) SetEnabled(enabled bool) { w.enabled.Store(enabled) }

// Enabled reports whether changes currently post reloads.
func (w *Watcher) Enabled() bool { return w.enabled.Load() }

// SetDebounce changes the quiet period.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounce
	}
	w.debounce.SetInterval(d)
}

// Run watches until ctx is done. It fails if a path cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher already running")
	}
	defer w.debounce.Stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	for _, p := range w.cfg.Paths {
		if err := w.add(fsw, p); err != nil {
			return err
		}
	}

	w.logger.Info("watching configuration", "paths", w.cfg.Paths)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("configuration change detected", "path", ev.Name, "op", ev.Op.String())
			if !w.enabled.Load() {
				continue
			}
			name := ev.Name
			w.debounce.Trigger(func() {
				w.poster.Post(event.Reload().From("watch:" + name))
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) add(fsw *fsnotify.Watcher, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to watch %q: %w", path, err)
	}

	dir := abs
	if info.IsDir() {
		w.dirs[abs] = true
	} else {
		w.files[abs] = true
		dir = filepath.Dir(abs)
	}
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	return nil
}

// relevant reports whether ev touches a watched file or a config file in a
// watched directory.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return slices.Contains(w.cfg.Extensions, strings.ToLower(filepath.Ext(name)))
}
