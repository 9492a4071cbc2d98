package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/lifecycle"
)

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{name: "no checks", wantStatus: StatusReady},
		{
			name: "all passing",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return errors.New("down") },
			},
			wantStatus: StatusNotReady,
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error { <-ctx.Done(); time.Sleep(10 * time.Millisecond); return nil },
			},
			wantStatus: StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(20 * time.Millisecond)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s (%v)", tt.wantStatus, status.Status, status.Checks)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
		})
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	c := New(0)
	c.RegisterCheck("b", func(context.Context) error { return nil })
	c.RegisterCheck("a", func(context.Context) error { return nil })
	if got := c.ListChecks(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected sorted names, got %v", got)
	}
	c.UnregisterCheck("a")
	if got := c.ListChecks(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected b only, got %v", got)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	alive := true
	c.SetState(func() (string, bool) { return "running", alive })
	failing := false
	c.RegisterCheck("dep", func(context.Context) error {
		if failing {
			return errors.New("unavailable")
		}
		return nil
	})

	mux := http.NewServeMux()
	Register(mux, c, NewVersionInfo("1.2.3", "abc", "today"))

	get := func(path string) (*httptest.ResponseRecorder, map[string]any) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return rec, body
	}

	rec, body := get("/health")
	if rec.Code != http.StatusOK || body["state"] != "running" {
		t.Errorf("unexpected liveness %d %v", rec.Code, body)
	}
	rec, _ = get("/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("expected ready, got %d", rec.Code)
	}

	failing = true
	rec, body = get("/ready")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != StatusNotReady {
		t.Errorf("expected not ready, got %d %v", rec.Code, body)
	}

	alive = false
	if rec, _ = get("/health"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected dead process to fail liveness, got %d", rec.Code)
	}

	rec, body = get("/version")
	if rec.Code != http.StatusOK || body["version"] != "1.2.3" || body["go_version"] == "" {
		t.Errorf("unexpected version response %d %v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", rec.Code)
	}
}

func TestAttach(t *testing.T) {
	loader := lifecycle.LoaderFunc[int](func(context.Context) (int, error) { return 1, nil })
	ctl := lifecycle.New[int](loader, lifecycle.Options{DisableSignals: true})

	c := New(time.Second)
	Attach(c, ctl)

	if got := c.CheckReadiness(context.Background()); got.Status != StatusNotReady || got.State != "configuring" {
		t.Errorf("expected not ready while configuring, got %+v", got)
	}

	errc := make(chan error, 1)
	go func() { errc <- ctl.Run(context.Background()) }()
	<-ctl.Ready()

	if got := c.CheckReadiness(context.Background()); got.Status != StatusReady {
		t.Errorf("expected ready while running, got %+v", got)
	}

	ctl.Post(event.Terminate())
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if got := c.CheckLiveness(context.Background()); got.Status != StatusUnhealthy {
		t.Errorf("expected terminated daemon to fail liveness, got %+v", got)
	}
}
