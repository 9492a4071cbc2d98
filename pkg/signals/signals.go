// Package signals translates OS signals into lifecycle actions.
//
// The Go runtime's signal handler only records the signal number and wakes
// a runtime goroutine, which forwards it to channels registered with
// signal.Notify using a non-blocking send. The Dispatcher gives every
// mapped signal its own channel with a buffer of one, so repeated
// deliveries of one signal coalesce without ever crowding out another, and
// converts them into actions on ordinary goroutines.
package signals

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"

	"mercator-hq/keeper/pkg/event"
)

// Mapping maps OS signals to actions.
type Mapping map[os.Signal]event.Action

// Clone returns a copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for sig, a := range m {
		out[sig] = a
	}
	return out
}

// ParseMapping returns DefaultMapping with entries of the form
// "SIGNAL=action" applied on top, where action is accepted by event.Parse.
// Signal names may omit the SIG prefix.
func ParseMapping(entries []string) (Mapping, error) {
	m := DefaultMapping()
	for _, entry := range entries {
		name, action, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid signal mapping %q (expected SIGNAL=action)", entry)
		}
		sig, err := Parse(name)
		if err != nil {
			return nil, err
		}
		a, err := event.Parse(action)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", name, err)
		}
		m[sig] = a
	}
	return m, nil
}

// InstallError is returned when a mapped signal cannot be handled.
type InstallError struct {
	Signal string
	Err    error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install handler for %s: %v", e.Signal, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Config configures a Dispatcher.
type Config struct {
	// Mapping selects the handled signals. It is copied by NewDispatcher.
	Mapping Mapping

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnSignal, if set, is called for every received signal before the
	// action is posted.
	OnSignal func(os.Signal)
}

// Dispatcher forwards mapped signals to a Poster.
type Dispatcher struct {
	mapping  Mapping
	poster   event.Poster
	logger   *slog.Logger
	onSignal func(os.Signal)

	mu      sync.Mutex
	started bool
	chans   []chan os.Signal
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher posting to poster. Start must be
// called before signals are handled.
func NewDispatcher(cfg Config, poster event.Poster) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mapping:  cfg.Mapping.Clone(),
		poster:   poster,
		logger:   logger.With("component", "signals"),
		onSignal: cfg.OnSignal,
		stop:     make(chan struct{}),
	}
}

// Start installs handlers for every mapped signal. It fails with an
// *InstallError, installing nothing, if any signal cannot be caught.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("dispatcher already started")
	}

	sigs := d.signals()
	for _, sig := range sigs {
		if err := checkCatchable(sig); err != nil {
			return &InstallError{Signal: Name(sig), Err: err}
		}
	}

	for _, sig := range sigs {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, sig)
		d.chans = append(d.chans, ch)

		d.wg.Add(1)
		go d.consume(ch, d.mapping[sig])
	}
	d.started = true

	d.logger.Debug("signal handlers installed", "signals", names(sigs))
	return nil
}

// Stop removes the handlers and waits for the consumer goroutines. It is
// safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return
	}
	for _, ch := range d.chans {
		signal.Stop(ch)
	}
	close(d.stop)
	d.wg.Wait()
	d.chans = nil
	d.started = false
}

func (d *Dispatcher) consume(ch <-chan os.Signal, action event.Action) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stop:
			return
		case sig := <-ch:
			if d.onSignal != nil {
				d.onSignal(sig)
			}
			name := Name(sig)
			d.logger.Info("signal received", "signal", name, "action", action.String())
			d.poster.Post(action.From("signal:" + name))
		}
	}
}

// signals returns the mapped signals in a stable order.
func (d *Dispatcher) signals() []os.Signal {
	sigs := make([]os.Signal, 0, len(d.mapping))
	for sig := range d.mapping {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return Name(sigs[i]) < Name(sigs[j]) })
	return sigs
}

func names(sigs []os.Signal) []string {
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		out[i] = Name(sig)
	}
	return out
}
