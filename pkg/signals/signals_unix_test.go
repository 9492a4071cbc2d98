//go:build !windows

package signals

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"mercator-hq/keeper/pkg/event"
)

// TestMain keeps the test signals caught for the whole run so a delivery
// racing with Dispatcher.Stop cannot fall back to the default action.
func TestMain(m *testing.M) {
	signal.Notify(make(chan os.Signal, 1), syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP)
	os.Exit(m.Run())
}

type recorder struct {
	mu      sync.Mutex
	actions []event.Action
	got     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 64)}
}

func (r *recorder) Post(a event.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) snapshot() []event.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Action(nil), r.actions...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for action")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want os.Signal
	}{
		{name: "SIGHUP", want: syscall.SIGHUP},
		{name: "usr1", want: syscall.SIGUSR1},
		{name: " sigterm ", want: syscall.SIGTERM},
	}
	for _, tt := range tests {
		got, err := Parse(tt.name)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("parse %q: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	if _, err := Parse("SIGBOGUS"); err == nil {
		t.Error("expected error for unknown signal")
	}
}

func TestName(t *testing.T) {
	if got := Name(syscall.SIGHUP); got != "SIGHUP" {
		t.Errorf("expected SIGHUP, got %s", got)
	}
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]string{"SIGUSR1=custom:rotate", "SIGHUP=terminate", "USR2=Custom:FlushCache"})
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}
	if m[syscall.SIGUSR1] != event.Custom("rotate") {
		t.Errorf("expected SIGUSR1 to map to custom:rotate, got %+v", m[syscall.SIGUSR1])
	}
	if m[syscall.SIGHUP] != event.Terminate() {
		t.Errorf("expected SIGHUP override, got %+v", m[syscall.SIGHUP])
	}
	if m[syscall.SIGUSR2] != event.Custom("FlushCache") {
		t.Errorf("expected tag case to be kept, got %+v", m[syscall.SIGUSR2])
	}
	if m[syscall.SIGTERM] != event.Terminate() {
		t.Errorf("expected default SIGTERM mapping to survive, got %+v", m[syscall.SIGTERM])
	}
}

func TestStartRejectsUncatchableSignals(t *testing.T) {
	d := NewDispatcher(Config{Mapping: Mapping{
		syscall.SIGUSR2: event.Reload(),
		syscall.SIGKILL: event.Terminate(),
	}}, newRecorder())

	err := d.Start()
	var ie *InstallError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InstallError, got %v", err)
	}
	if ie.Signal != "SIGKILL" {
		t.Errorf("expected SIGKILL in error, got %s", ie.Signal)
	}
	d.Stop()
}

func TestDispatcherDeliversActions(t *testing.T) {
	rec := newRecorder()
	var observed []os.Signal
	var mu sync.Mutex

	d := NewDispatcher(Config{
		Mapping: Mapping{syscall.SIGUSR1: event.Custom("rotate")},
		OnSignal: func(sig os.Signal) {
			mu.Lock()
			observed = append(observed, sig)
			mu.Unlock()
		},
	}, rec)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	rec.wait(t)

	got := rec.snapshot()
	if got[0].Kind != event.KindCustom || got[0].Tag != "rotate" || got[0].Source != "signal:SIGUSR1" {
		t.Errorf("unexpected action %+v", got[0])
	}
	mu.Lock()
	defer mu.Unlock()
	if len(observed) == 0 || observed[0] != syscall.SIGUSR1 {
		t.Errorf("expected OnSignal to observe SIGUSR1, got %v", observed)
	}
}

func TestDispatcherCoalescesButNeverDropsAll(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(Config{Mapping: Mapping{syscall.SIGUSR2: event.Reload()}}, rec)
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	for i := 0; i < 3; i++ {
		if err := syscall.Kill(os.Getpid(), syscall.SIGUSR2); err != nil {
			t.Fatalf("kill: %v", err)
		}
	}
	rec.wait(t)

	got := rec.snapshot()
	if len(got) < 1 || len(got) > 3 {
		t.Fatalf("expected between 1 and 3 actions, got %d", len(got))
	}
	for _, a := range got {
		if a.Kind != event.KindReload {
			t.Errorf("expected reload, got %+v", a)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Mapping: Mapping{syscall.SIGUSR2: event.Reload()}}, newRecorder())
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()
	d.Stop()
}
