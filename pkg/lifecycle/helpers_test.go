package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

type testConfig struct {
	Port int    `json:"port" yaml:"port" required:"true"`
	Name string `json:"name" yaml:"name"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		Logger:         quietLogger(),
		DisableSignals: true,
		HookTimeout:    time.Second,
		ShutdownGrace:  time.Second,
	}
}

// staticLoader returns whatever was last stored with set.
type staticLoader struct {
	mu  sync.Mutex
	cfg testConfig
	err error
}

func (l *staticLoader) set(cfg testConfig, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg, l.err = cfg, err
}

func (l *staticLoader) Load(context.Context) (testConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg, l.err
}

// recorder collects hook invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// start runs ctl in the background and waits until it is Running.
func start[C any](t *testing.T, ctl *Controller[C]) <-chan error {
	t.Helper()

	errc := make(chan error, 1)
	go func() { errc <- ctl.Run(context.Background()) }()

	select {
	case <-ctl.Ready():
	case err := <-errc:
		t.Fatalf("controller stopped before running: %v", err)
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for controller to run")
	}
	return errc
}

func waitResult(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for controller to stop")
		return nil
	}
}

func waitVersion[C any](t *testing.T, ctl *Controller[C], version uint64) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if snap := ctl.Config(); snap != nil && snap.Version() >= version {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for version %d", version)
}

func waitError[C any](t *testing.T, ctl *Controller[C]) error {
	t.Helper()
	select {
	case err := <-ctl.Errors():
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for reload error")
		return nil
	}
}

func waitState[C any](t *testing.T, ctl *Controller[C], want State) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if ctl.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, at %s", want, ctl.State())
}
