package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/lifecycle"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type appConfig struct {
	Logging config.LoggingConfig
}

func TestExtensionFollowsReloads(t *testing.T) {
	out := &syncBuffer{}
	l, err := NewWithWriter(config.LoggingConfig{Level: "info"}, out)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	current := appConfig{Logging: config.LoggingConfig{Level: "warn"}}
	loader := lifecycle.LoaderFunc[appConfig](func(context.Context) (appConfig, error) {
		mu.Lock()
		defer mu.Unlock()
		return current, nil
	})

	ctl := lifecycle.New[appConfig](loader, lifecycle.Options{Logger: l.Slog(), DisableSignals: true})
	if err := ctl.With(Extension(l, func(c appConfig) config.LoggingConfig { return c.Logging })); err != nil {
		t.Fatal(err)
	}
	if names := ctl.Registry().Names(lifecycle.StagePostConfig); !slices.Contains(names, "logging") {
		t.Errorf("expected a logging post-config hook, got %v", names)
	}

	errc := make(chan error, 1)
	go func() { errc <- ctl.Run(context.Background()) }()
	<-ctl.Ready()

	if l.Level() != slog.LevelWarn {
		t.Errorf("expected warn after startup, got %s", l.Level())
	}

	mu.Lock()
	current.Logging.Level = "nonsense"
	mu.Unlock()
	ctl.Post(event.Reload())

	select {
	case err := <-ctl.Errors():
		var ve *lifecycle.ValidationError
		if !errors.As(err, &ve) || ve.Hook != "logging" {
			t.Errorf("expected logging validation error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rejected reload")
	}
	if l.Level() != slog.LevelWarn {
		t.Errorf("expected level to survive a rejected reload, got %s", l.Level())
	}

	mu.Lock()
	current.Logging.Level = "debug"
	mu.Unlock()
	ctl.Post(event.Reload())

	deadline := time.Now().Add(5 * time.Second)
	for l.Level() != slog.LevelDebug && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if l.Level() != slog.LevelDebug {
		t.Errorf("expected debug after reload, got %s", l.Level())
	}
	for !strings.Contains(out.String(), "log level changed") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := out.String(); !strings.Contains(got, "log level changed") || !strings.Contains(got, "DEBUG") {
		t.Errorf("expected the level change to be logged, got %q", got)
	}

	ctl.Post(event.Terminate())
	if err := <-errc; err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}
