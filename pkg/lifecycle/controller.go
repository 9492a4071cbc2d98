package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/journal"
	"mercator-hq/keeper/pkg/signals"
	"mercator-hq/keeper/pkg/telemetry/metrics"
)

// Default budgets and sizes.
const (
	DefaultHookTimeout   = 5 * time.Second
	DefaultShutdownGrace = 10 * time.Second
	DefaultErrorBuffer   = 16

	defaultJournalCapacity = 256
	tracerName             = "mercator-hq/keeper/lifecycle"
)

// Loader produces a fresh configuration for each cycle. It is called once at
// startup and once per reload. *config.Loader implements it.
type Loader[C any] interface {
	Load(ctx context.Context) (C, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[C any] func(ctx context.Context) (C, error)

// Load calls f.
func (f LoaderFunc[C]) Load(ctx context.Context) (C, error) { return f(ctx) }

// Options configures a Controller. The zero value is usable.
type Options struct {
	// Logger receives lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Signals maps OS signals to actions. Nil means signals.DefaultMapping().
	Signals signals.Mapping

	// DisableSignals skips signal installation entirely.
	DisableSignals bool

	// HookTimeout is the initial budget of each terminate hook.
	HookTimeout time.Duration

	// ShutdownGrace is the initial time bodies get to return after
	// cancellation.
	ShutdownGrace time.Duration

	// Metrics records lifecycle metrics. Nil disables metrics.
	Metrics *metrics.Collector

	// Journal records cycle outcomes. Defaults to an in-memory journal.
	Journal journal.Journal

	// Tracer opens a span per cycle. Defaults to the global provider's tracer.
	Tracer trace.Tracer

	// ErrorBuffer is the capacity of the Errors channel.
	ErrorBuffer int
}

// Controller runs the daemon lifecycle. It owns the hook registry, the
// signal mapping and the shared configuration cell; everything else sees
// configuration only through snapshots.
type Controller[C any] struct {
	loader   Loader[C]
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics.Collector
	journal  journal.Journal
	mapping  signals.Mapping
	shared   *config.Shared[C]
	registry *Registry[C]
	queue    *actionQueue
	runtime  *Runtime[C]

	state       atomic.Int32
	hookTimeout atomic.Int64
	grace       atomic.Int64
	lastErr     atomic.Pointer[errorBox]
	started     atomic.Bool

	errs      chan error
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	mu         sync.Mutex
	singletons map[reflect.Type]struct{}
}

type errorBox struct{ err error }

// New returns a controller in the Configuring state.
func New[C any](loader Loader[C], opts Options) *Controller[C] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	j := opts.Journal
	if j == nil {
		j = journal.NewMemory(defaultJournalCapacity)
	}
	mapping := opts.Signals
	if opts.DisableSignals {
		mapping = nil
	} else if mapping == nil {
		mapping = signals.DefaultMapping()
	}
	buffer := opts.ErrorBuffer
	if buffer <= 0 {
		buffer = DefaultErrorBuffer
	}

	c := &Controller[C]{
		loader:     loader,
		logger:     logger.With("component", "lifecycle"),
		tracer:     tracer,
		metrics:    opts.Metrics,
		journal:    j,
		mapping:    mapping,
		shared:     config.NewShared[C](),
		registry:   NewRegistry[C](),
		queue:      newActionQueue(),
		errs:       make(chan error, buffer),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		singletons: make(map[reflect.Type]struct{}),
	}
	c.runtime = &Runtime[C]{ctl: c}
	c.SetShutdownBudget(opts.HookTimeout, opts.ShutdownGrace)
	c.metrics.SetState(Configuring.String())
	return c
}

// State returns the current lifecycle state.
func (c *Controller[C]) State() State { return State(c.state.Load()) }

// Config returns the current snapshot, or nil before the initial commit.
func (c *Controller[C]) Config() *config.Snapshot[C] { return c.shared.Get() }

// Runtime returns the read-only view handed to bodies and handlers.
func (c *Controller[C]) Runtime() *Runtime[C] { return c.runtime }

// Registry returns the hook registry.
func (c *Controller[C]) Registry() *Registry[C] { return c.registry }

// Logger returns the controller's logger.
func (c *Controller[C]) Logger() *slog.Logger { return c.logger }

// Errors delivers reload and hook errors as they happen. Errors are dropped
// when nobody drains the channel and it is full; LastError and the journal
// still record them.
func (c *Controller[C]) Errors() <-chan error { return c.errs }

// LastError returns the most recent reload or hook error, or nil.
func (c *Controller[C]) LastError() error {
	if box := c.lastErr.Load(); box != nil {
		return box.err
	}
	return nil
}

// Ready is closed once the controller first reaches Running.
func (c *Controller[C]) Ready() <-chan struct{} { return c.ready }

// Done is closed when Run returns.
func (c *Controller[C]) Done() <-chan struct{} { return c.done }

// SetShutdownBudget changes the terminate hook budget and the body grace
// period used by the next shutdown. Non-positive values restore defaults.
func (c *Controller[C]) SetShutdownBudget(hookTimeout, grace time.Duration) {
	if hookTimeout <= 0 {
		hookTimeout = DefaultHookTimeout
	}
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	c.hookTimeout.Store(int64(hookTimeout))
	c.grace.Store(int64(grace))
}

// Post queues an action for the controller goroutine. It never blocks.
// Actions posted before Running are processed once Running is reached;
// actions posted after Terminated are dropped.
func (c *Controller[C]) Post(a event.Action) {
	if c.State() == Terminated {
		return
	}
	if !c.queue.post(a) {
		c.logger.Debug("action coalesced", "action", a.String(), "source", a.Source)
		return
	}
	c.logger.Debug("action queued", "action", a.String(), "source", a.Source)
}

// Run installs signal handling, performs the initial load and runs until a
// Terminate action is processed or ctx is done. It returns nil after a
// clean shutdown, a *StartupError if Running was never reached, or a
// *ShutdownError; ExitCode maps the result to a process exit code.
func (c *Controller[C]) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(c.done)

	if c.loader == nil {
		c.abortStartup()
		return &StartupError{Err: ErrNoLoader}
	}

	if c.mapping != nil {
		d := signals.NewDispatcher(signals.Config{
			Mapping: c.mapping,
			Logger:  c.logger,
			OnSignal: func(sig os.Signal) {
				c.metrics.RecordSignal(signals.Name(sig))
			},
		}, c)
		if err := d.Start(); err != nil {
			c.abortStartup()
			return &StartupError{Err: err}
		}
		defer d.Stop()
	}

	if err := c.runCycle(ctx, newCycle(CycleStartup, "startup")); err != nil {
		c.abortStartup()
		return &StartupError{Err: err}
	}

	c.registry.freeze()
	c.setState(Running)
	c.readyOnce.Do(func() { close(c.ready) })

	bodyCtx, cancelBodies := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBodies()
	bodies := c.startBodies(bodyCtx)

	trigger := c.loop(ctx)
	return c.shutdown(trigger, cancelBodies, bodies)
}

func (c *Controller[C]) abortStartup() {
	c.registry.freeze()
	c.setState(Terminated)
}

func (c *Controller[C]) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.logger.Debug("state changed", "from", old.String(), "to", s.String())
	}
	c.metrics.SetState(s.String())
}

// loop consumes actions until a Terminate is dequeued and returns it.
func (c *Controller[C]) loop(ctx context.Context) event.Action {
	ctxDone := ctx.Done()
	for {
		for {
			a, ok := c.queue.next()
			if !ok {
				break
			}
			if a.Kind == event.KindTerminate {
				return a
			}
			c.handle(ctx, a)
		}

		select {
		case <-c.queue.ready():
		case <-ctxDone:
			ctxDone = nil
			c.Post(event.Terminate().From("context"))
		}
	}
}

func (c *Controller[C]) handle(ctx context.Context, a event.Action) {
	c.metrics.RecordAction(a.Kind.String())

	switch a.Kind {
	case event.KindReload:
		c.setState(ReloadInProgress)
		reloadCtx, cancel := context.WithCancel(ctx)
		c.queue.setInterrupt(cancel)
		_ = c.runCycle(reloadCtx, newCycle(CycleReload, a.Source))
		c.queue.setInterrupt(nil)
		cancel()
		c.setState(Running)
	case event.KindCustom:
		c.dispatchCustom(ctx, a)
	default:
		c.logger.Warn("ignoring unknown action", "action", a.String())
	}
}

// runCycle loads, validates, mutates and commits one configuration. On
// failure the cell is left untouched and the error is recorded.
func (c *Controller[C]) runCycle(ctx context.Context, cycle *Cycle) error {
	ctx, span := c.tracer.Start(ctx, "lifecycle."+string(cycle.kind), trace.WithAttributes(
		attribute.String("keeper.cycle.id", cycle.id),
		attribute.String("keeper.cycle.trigger", cycle.trigger),
	))
	defer span.End()

	logger := c.logger.With("cycle_id", cycle.id, "cycle", string(cycle.kind))
	if cycle.kind == CycleReload {
		logger = logger.With("trigger", cycle.trigger)
	}
	logger.DebugContext(ctx, "configuration cycle started")

	prev := c.shared.Get()
	cfg, err := c.prepare(ctx, cycle)

	var snap *config.Snapshot[C]
	if err == nil {
		snap = c.shared.Next(cfg)
		err = c.shared.Commit(snap)
	}
	if err != nil {
		cycle.abort()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.cycleRejected(ctx, cycle, err, logger)
		return err
	}

	if err := cycle.commit(); err != nil {
		logger.ErrorContext(ctx, "commit callback failed", "error", err)
		c.reportError(&HookError{Stage: StageValidate, Hook: "commit", Err: err})
	}
	c.runPostConfig(ctx, snap, logger)

	var changed []string
	if prev != nil {
		changed = config.Diff(prev.Value(), snap.Value())
	}
	span.SetAttributes(attribute.Int64("keeper.config.version", int64(snap.Version())))
	c.cycleCommitted(ctx, cycle, snap, changed, logger)
	return nil
}

func (c *Controller[C]) prepare(ctx context.Context, cycle *Cycle) (C, error) {
	var zero C

	for _, e := range c.registry.hooks(StageBeforeConfig) {
		if err := safeCall(func() error { return e.hook.(BeforeConfigHook).BeforeConfig(ctx, cycle) }); err != nil {
			return zero, &HookError{Stage: StageBeforeConfig, Hook: e.name, Err: err}
		}
	}

	var cfg C
	err := safeCall(func() (err error) {
		cfg, err = c.loader.Load(ctx)
		return err
	})
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			err = &config.LoadError{Source: "loader", Reason: config.ReasonUnreadable, Err: err}
		}
		return zero, err
	}

	return runPipeline(ctx, c.registry, cycle, cfg)
}

func (c *Controller[C]) runPostConfig(ctx context.Context, snap *config.Snapshot[C], logger *slog.Logger) {
	for _, e := range c.registry.hooks(StagePostConfig) {
		err := safeCall(func() error { return e.hook.(ConfigHook[C]).PostConfig(ctx, snap) })
		if err != nil {
			herr := &HookError{Stage: StagePostConfig, Hook: e.name, Err: err}
			logger.ErrorContext(ctx, "post-config hook failed", "hook", e.name, "error", err)
			c.reportError(herr)
		}
	}
}

func (c *Controller[C]) cycleCommitted(ctx context.Context, cycle *Cycle, snap *config.Snapshot[C], changed []string, logger *slog.Logger) {
	d := time.Since(cycle.startedAt)

	if cycle.Initial() {
		logger.InfoContext(ctx, "configuration loaded", "version", snap.Version())
	} else {
		logger.InfoContext(ctx, "configuration reloaded", "version", snap.Version(), "changed", changed, "duration", d)
	}

	c.metrics.RecordCycle(string(cycle.kind), string(journal.OutcomeCommitted), d)
	c.metrics.SetConfigVersion(snap.Version())
	c.record(ctx, journal.Entry{
		ID:        cycle.id,
		Kind:      string(cycle.kind),
		Trigger:   cycle.trigger,
		Outcome:   journal.OutcomeCommitted,
		Version:   snap.Version(),
		Changed:   changed,
		StartedAt: cycle.startedAt,
		Duration:  d,
	})
}

func (c *Controller[C]) cycleRejected(ctx context.Context, cycle *Cycle, err error, logger *slog.Logger) {
	d := time.Since(cycle.startedAt)
	version := c.shared.Version()

	if cycle.Initial() {
		logger.ErrorContext(ctx, "initial configuration rejected", "error", err)
	} else {
		logger.ErrorContext(ctx, "reload rejected, keeping current configuration", "version", version, "error", err)
		c.reportError(err)
	}

	c.metrics.RecordCycle(string(cycle.kind), string(journal.OutcomeRejected), d)
	c.record(ctx, journal.Entry{
		ID:        cycle.id,
		Kind:      string(cycle.kind),
		Trigger:   cycle.trigger,
		Outcome:   journal.OutcomeRejected,
		Version:   version,
		Error:     err.Error(),
		StartedAt: cycle.startedAt,
		Duration:  d,
	})
}

func (c *Controller[C]) dispatchCustom(ctx context.Context, a event.Action) {
	handlers := c.registry.actionHandlers(a.Tag)
	if len(handlers) == 0 {
		c.logger.Warn("no handler registered for custom action", "tag", a.Tag, "source", a.Source)
		return
	}

	for _, e := range handlers {
		err := safeCall(func() error { return e.hook.(ActionHandler[C]).HandleAction(ctx, c.runtime, a) })
		if err != nil {
			c.logger.Error("custom action handler failed", "tag", a.Tag, "handler", e.name, "error", err)
			c.reportError(&ActionError{Tag: a.Tag, Hook: e.name, Err: err})
		}
	}
}

func (c *Controller[C]) reportError(err error) {
	c.lastErr.Store(&errorBox{err: err})
	select {
	case c.errs <- err:
	default:
		c.metrics.RecordDroppedError()
	}
}

func (c *Controller[C]) record(ctx context.Context, e journal.Entry) {
	if err := c.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warn("failed to record journal entry", "cycle_id", e.ID, "error", err)
	}
}

type bodyGroup struct {
	done chan struct{}
	err  error
}

// startBodies runs every body on its own goroutine. The first body to
// return, with or without an error, requests shutdown.
func (c *Controller[C]) startBodies(ctx context.Context) *bodyGroup {
	bg := &bodyGroup{done: make(chan struct{})}

	hooks := c.registry.hooks(StageBody)
	if len(hooks) == 0 {
		close(bg.done)
		return bg
	}

	var g errgroup.Group
	for _, e := range hooks {
		g.Go(func() error {
			err := safeCall(func() error { return e.hook.(Body[C]).Run(ctx, c.runtime) })
			if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				err = &HookError{Stage: StageBody, Hook: e.name, Err: err}
				c.logger.Error("body failed", "body", e.name, "error", err)
			} else {
				c.logger.Debug("body returned", "body", e.name)
			}
			c.Post(event.Terminate().From("body:" + e.name))
			return err
		})
	}

	go func() {
		bg.err = g.Wait()
		close(bg.done)
	}()
	return bg
}

// shutdown cancels bodies, waits for them within the grace period and runs
// terminate hooks in reverse registration order, each within its budget.
func (c *Controller[C]) shutdown(trigger event.Action, cancelBodies context.CancelFunc, bodies *bodyGroup) error {
	started := time.Now()
	id := uuid.NewString()
	c.setState(ShuttingDown)

	ctx, span := c.tracer.Start(context.Background(), "lifecycle.shutdown", trace.WithAttributes(
		attribute.String("keeper.cycle.id", id),
		attribute.String("keeper.cycle.trigger", trigger.Source),
	))
	defer span.End()

	logger := c.logger.With("cycle_id", id, "cycle", "shutdown")
	logger.InfoContext(ctx, "shutting down", "trigger", trigger.Source)

	res := &ShutdownError{}

	cancelBodies()
	grace := time.Duration(c.grace.Load())
	timer := time.NewTimer(grace)
	select {
	case <-bodies.done:
		timer.Stop()
		res.BodyErr = bodies.err
	case <-timer.C:
		res.BodiesAbandoned = true
		logger.Warn("bodies did not stop within the grace period", "grace", grace)
	}

	timeout := time.Duration(c.hookTimeout.Load())
	for _, e := range c.registry.hooks(StageTerminate) {
		err := c.runTerminator(e, timeout, logger)
		if err == nil {
			continue
		}
		var te *HookTimeoutError
		if errors.As(err, &te) {
			res.Timeouts = append(res.Timeouts, te)
			c.metrics.RecordHookTimeout(e.name)
		} else {
			res.Failures = append(res.Failures, err)
		}
	}

	c.setState(Terminated)

	outcome := journal.OutcomeClean
	var msg string
	switch {
	case res.Degraded():
		outcome = journal.OutcomeDegraded
		msg = res.Error()
	case !res.empty():
		outcome = journal.OutcomeFailed
		msg = res.Error()
	}
	d := time.Since(started)
	c.metrics.RecordCycle("shutdown", string(outcome), d)
	c.record(ctx, journal.Entry{
		ID:        id,
		Kind:      "shutdown",
		Trigger:   trigger.Source,
		Outcome:   outcome,
		Version:   c.shared.Version(),
		Error:     msg,
		StartedAt: started,
		Duration:  d,
	})

	if res.empty() {
		logger.Info("shutdown complete", "duration", d)
		return nil
	}
	span.RecordError(res)
	span.SetStatus(codes.Error, msg)
	logger.Error("shutdown completed with errors", "error", res, "duration", d)
	return res
}

// runTerminator runs one terminate hook on its own goroutine. A hook still
// running when its budget expires is abandoned, not interrupted.
func (c *Controller[C]) runTerminator(e entry, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- safeCall(func() error { return e.hook.(Terminator).Terminate(ctx) })
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("terminate hook failed", "hook", e.name, "error", err)
			return &HookError{Stage: StageTerminate, Hook: e.name, Err: err}
		}
		logger.Debug("terminate hook finished", "hook", e.name)
		return nil
	case <-ctx.Done():
		logger.Warn("terminate hook abandoned", "hook", e.name, "timeout", timeout)
		return &HookTimeoutError{Hook: e.name, Timeout: timeout}
	}
}

// safeCall converts a panic in a hook into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
