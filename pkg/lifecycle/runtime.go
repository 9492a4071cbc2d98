package lifecycle

import (
	"log/slog"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/journal"
)

// Runtime is the read-only view of a controller handed to bodies, custom
// action handlers and extensions. It never exposes the configuration cell
// itself, only its snapshots.
type Runtime[C any] struct {
	ctl *Controller[C]
}

// Config returns the current snapshot. It is nil only before the initial
// commit.
func (rt *Runtime[C]) Config() *config.Snapshot[C] {
	return rt.ctl.shared.Get()
}

// Value returns the current configuration payload, or the zero value before
// the initial commit.
func (rt *Runtime[C]) Value() C {
	if snap := rt.ctl.shared.Get(); snap != nil {
		return snap.Value()
	}
	var zero C
	return zero
}

// State returns the controller's current state.
func (rt *Runtime[C]) State() State { return rt.ctl.State() }

// Logger returns the controller's logger.
func (rt *Runtime[C]) Logger() *slog.Logger { return rt.ctl.logger }

// Journal returns the reload journal.
func (rt *Runtime[C]) Journal() journal.Journal { return rt.ctl.journal }

// LastError returns the most recent reload or hook error, or nil.
func (rt *Runtime[C]) LastError() error { return rt.ctl.LastError() }

// Ready is closed once the controller first reaches Running.
func (rt *Runtime[C]) Ready() <-chan struct{} { return rt.ctl.ready }

// Post forwards a to the controller.
func (rt *Runtime[C]) Post(a event.Action) { rt.ctl.Post(a) }

// Reload requests a reload.
func (rt *Runtime[C]) Reload() { rt.ctl.Post(event.Reload().From("runtime")) }

// Terminate requests shutdown.
func (rt *Runtime[C]) Terminate() { rt.ctl.Post(event.Terminate().From("runtime")) }
