package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
	"mercator-hq/keeper/pkg/telemetry/health"
	"mercator-hq/keeper/pkg/telemetry/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configures the admin server.
type Options struct {
	// Version is served on /version.
	Version health.VersionInfo

	// Metrics is served on /metrics. Nil answers 404.
	Metrics *metrics.Collector

	// Checker backs /health and /ready. Defaults to a checker attached to
	// the controller.
	Checker *health.Checker
}

// Server is the operator HTTP listener. It binds during the startup cycle
// and serves as a lifecycle body; reload rate limits follow each commit.
// Its address is fixed for the life of the process.
type Server[C any] struct {
	extract func(C) config.AdminConfig
	opts    Options

	ctl     *lifecycle.Controller[C]
	logger  *slog.Logger
	limiter atomic.Pointer[rate.Limiter]
	started time.Time

	mu      sync.Mutex
	ln      net.Listener
	address string
}

// New returns an admin server extension. extract selects the admin section
// of each configuration.
func New[C any](extract func(C) config.AdminConfig, opts Options) *Server[C] {
	s := &Server[C]{
		extract: extract,
		opts:    opts,
		started: time.Now(),
	}
	s.limiter.Store(rate.NewLimiter(rate.Limit(config.DefaultAdminReloadRate), config.DefaultAdminReloadBurst))
	return s
}

// Apply registers the admin hooks and body.
func (s *Server[C]) Apply(ctl *lifecycle.Controller[C]) error {
	s.ctl = ctl
	s.logger = ctl.Logger().With("component", "admin")
	if s.opts.Checker == nil {
		s.opts.Checker = health.New(2 * time.Second)
		health.Attach(s.opts.Checker, ctl)
	}

	if err := ctl.OnValidate("admin", s.validate); err != nil {
		return err
	}
	if err := ctl.OnPostConfig("admin", s.postConfig); err != nil {
		return err
	}
	return ctl.OnBody("admin", s.run)
}

// Addr returns the bound address, or nil when the server is disabled.
func (s *Server[C]) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// validate binds the listener during the startup cycle so a taken port
// fails startup.
func (s *Server[C]) validate(_ context.Context, cycle *lifecycle.Cycle, cfg C) error {
	ac := s.extract(cfg)
	if ac.ReloadRate < 0 || ac.ReloadBurst < 0 {
		return errors.New("admin reload rate and burst must not be negative")
	}
	if !cycle.Initial() || !ac.Enabled {
		return nil
	}

	ln, err := net.Listen("tcp", ac.ListenAddress)
	if err != nil {
		return fmt.Errorf("bind admin listener %s: %w", ac.ListenAddress, err)
	}
	cycle.OnCommit(func() {
		s.mu.Lock()
		s.ln, s.address = ln, ac.ListenAddress
		s.mu.Unlock()
	})
	cycle.OnAbort(func() { _ = ln.Close() })
	return nil
}

func (s *Server[C]) postConfig(ctx context.Context, snap *config.Snapshot[C]) error {
	ac := s.extract(snap.Value())

	limit := rate.Limit(ac.ReloadRate)
	if ac.ReloadRate == 0 {
		limit = rate.Limit(config.DefaultAdminReloadRate)
	}
	burst := ac.ReloadBurst
	if burst == 0 {
		burst = config.DefaultAdminReloadBurst
	}
	// A fresh limiter starts with a full bucket of the new burst; adjusting
	// the old one in place would keep tokens above it.
	if cur := s.limiter.Load(); cur.Limit() != limit || cur.Burst() != burst {
		s.limiter.Store(rate.NewLimiter(limit, burst))
	}

	s.mu.Lock()
	bound, address := s.ln != nil, s.address
	s.mu.Unlock()
	if ac.Enabled != bound || (bound && ac.ListenAddress != address) {
		s.logger.WarnContext(ctx, "admin listener settings changed, restart to apply",
			"enabled", ac.Enabled, "listen_address", ac.ListenAddress)
	}
	return nil
}

// Handler returns the admin routes wrapped in middleware.
func (s *Server[C]) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	health.Register(mux, s.opts.Checker, s.opts.Version)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /journal", s.handleJournal)
	mux.HandleFunc("POST /reload", s.handleReload)

	var handler http.Handler = mux
	handler = withLogging(s.logger, handler)
	handler = withRequestID(handler)
	return withRecovery(s.logger, handler)
}

// run serves until ctx is cancelled.
func (s *Server[C]) run(ctx context.Context, _ *lifecycle.Runtime[C]) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	if ln == nil {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("admin listener started", "address", ln.Addr().String())
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during admin server shutdown", "error", err)
	}
	s.logger.Info("admin listener stopped")
	return nil
}
