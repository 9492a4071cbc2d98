package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/keeper/pkg/event"
)

type recorder struct {
	mu      sync.Mutex
	actions []event.Action
	got     chan struct{}
}

func newRecorder() *recorder { return &recorder{got: make(chan struct{}, 64)} }

func (r *recorder) Post(a event.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

func (r *recorder) wait(t *testing.T) event.Action {
	t.Helper()
	select {
	case <-r.got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions[len(r.actions)-1]
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		d.Trigger(func() { calls.Add(1); last.Store(int32(i)) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
	if last.Load() != 5 {
		t.Errorf("expected the latest callback, got %d", last.Load())
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 1 {
		t.Error("expected no calls after Stop")
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
	// fsnotify registers synchronously in Run; give it a moment to start.
	time.Sleep(50 * time.Millisecond)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keeper.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w := New(Config{Paths: []string{path}, Debounce: 20 * time.Millisecond}, rec, nil)
	startWatcher(t, w)

	if err := os.WriteFile(other, []byte("b: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := rec.wait(t)
	if a.Kind != event.KindReload || !strings.HasSuffix(a.Source, "keeper.yaml") {
		t.Errorf("unexpected action %+v", a)
	}
}

func TestWatchDirectoryFiltersAndPauses(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w := New(Config{Paths: []string{dir}, Debounce: 20 * time.Millisecond}, rec, nil)
	startWatcher(t, w)

	for _, name := range []string{".hidden.yaml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("expected ignored files not to post, got %d", rec.count())
	}

	w.SetEnabled(false)
	if err := os.WriteFile(filepath.Join(dir, "paused.toml"), []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("expected paused watcher not to post, got %d", rec.count())
	}

	w.SetEnabled(true)
	if err := os.WriteFile(filepath.Join(dir, "10-app.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if a := rec.wait(t); !strings.HasSuffix(a.Source, "10-app.json") {
		t.Errorf("unexpected source %q", a.Source)
	}
}

func TestRunFailsForMissingPath(t *testing.T) {
	w := New(Config{Paths: []string{filepath.Join(t.TempDir(), "missing.yaml")}}, newRecorder(), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing path")
	}
}
