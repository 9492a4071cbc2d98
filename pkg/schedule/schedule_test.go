package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/journal"
	"mercator-hq/keeper/pkg/lifecycle"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"", false},
		{"0 3 * * *", false},
		{"*/15 * * * *", false},
		{"@every 1h", false},
		{"not a schedule", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if err := Parse(tt.spec); (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestSetReplacesAndRemoves(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) {}

	if err := s.Set("job", "0 3 * * *", noop); err != nil {
		t.Fatal(err)
	}
	first := s.NextRun("job")
	if first.IsZero() {
		t.Fatal("expected next run")
	}
	if first.Hour() != 3 {
		t.Errorf("expected 03:00, got %v", first)
	}

	if err := s.Set("job", "0 4 * * *", noop); err != nil {
		t.Fatal(err)
	}
	if got := s.Spec("job"); got != "0 4 * * *" {
		t.Errorf("expected replaced spec, got %q", got)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("expected 1 cron entry after replace, got %d", got)
	}

	if err := s.Set("job", "bogus", noop); err == nil {
		t.Error("expected error for invalid spec")
	}
	if got := s.Spec("job"); got != "0 4 * * *" {
		t.Errorf("invalid spec must not replace the job, got %q", got)
	}

	s.Remove("job")
	if s.Spec("job") != "" || !s.NextRun("job").IsZero() || len(s.cron.Entries()) != 0 {
		t.Error("expected job to be removed")
	}
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	ran := make(chan struct{}, 1)
	if err := s.Set("tick", "@every 1s", func(context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatal(err)
	}

	s.Start()
	if !s.IsRunning() {
		t.Fatal("expected running")
	}
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.IsRunning() {
		t.Error("expected stopped")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

type pruneRecorder struct {
	journal.Journal
	mu     sync.Mutex
	cutoff time.Time
	pruned chan struct{}
}

func (p *pruneRecorder) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	p.cutoff = cutoff
	p.mu.Unlock()
	select {
	case p.pruned <- struct{}{}:
	default:
	}
	return p.Journal.Prune(ctx, cutoff)
}

type appConfig struct {
	Daemon config.Settings
}

func TestExtension(t *testing.T) {
	var mu sync.Mutex
	settings := config.DefaultSettings()
	settings.Journal.RetentionDays = 7
	settings.Journal.PruneSchedule = "@every 1s"
	settings.Reload.Schedule = "0 5 * * *"

	loader := lifecycle.LoaderFunc[appConfig](func(context.Context) (appConfig, error) {
		mu.Lock()
		defer mu.Unlock()
		return appConfig{Daemon: settings}, nil
	})

	j := &pruneRecorder{Journal: journal.NewMemory(16), pruned: make(chan struct{}, 1)}
	ctl := lifecycle.New[appConfig](loader, lifecycle.Options{DisableSignals: true, Journal: j})
	s := New(nil)
	if err := ctl.With(Extension(s, func(c appConfig) config.Settings { return c.Daemon })); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- ctl.Run(context.Background()) }()
	<-ctl.Ready()

	if got := s.Spec(JobReload); got != "0 5 * * *" {
		t.Errorf("expected reload schedule, got %q", got)
	}

	select {
	case <-j.pruned:
	case <-time.After(3 * time.Second):
		t.Fatal("prune job did not run")
	}
	j.mu.Lock()
	age := time.Since(j.cutoff)
	j.mu.Unlock()
	if age < 7*24*time.Hour-time.Minute || age > 7*24*time.Hour+time.Minute {
		t.Errorf("expected a 7 day cutoff, got %v", age)
	}

	mu.Lock()
	settings.Reload.Schedule = "every tuesday"
	mu.Unlock()
	ctl.Post(event.Reload())

	select {
	case err := <-ctl.Errors():
		var ve *lifecycle.ValidationError
		if !errors.As(err, &ve) || ve.Hook != "schedule" {
			t.Errorf("expected schedule validation error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected rejected reload")
	}
	if got := s.Spec(JobReload); got != "0 5 * * *" {
		t.Errorf("rejected reload changed the schedule to %q", got)
	}

	mu.Lock()
	settings.Reload.Schedule = ""
	mu.Unlock()
	ctl.Post(event.Reload())

	deadline := time.Now().Add(5 * time.Second)
	for s.Spec(JobReload) != "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.Spec(JobReload); got != "" {
		t.Errorf("expected reload job removed, got %q", got)
	}

	ctl.Post(event.Terminate())
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if s.IsRunning() {
		t.Error("expected scheduler stopped on terminate")
	}
}
