package lifecycle

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CycleKind distinguishes the initial load from reloads.
type CycleKind string

const (
	// CycleStartup is the initial load.
	CycleStartup CycleKind = "startup"

	// CycleReload is any later load.
	CycleReload CycleKind = "reload"
)

// Cycle is one load, validate, mutate and commit attempt. Hooks use it to
// attach work that must happen only if the attempt commits, or only if it
// is rejected.
type Cycle struct {
	id        string
	kind      CycleKind
	trigger   string
	startedAt time.Time

	onCommit []func()
	onAbort  []func()
	done     bool
}

func newCycle(kind CycleKind, trigger string) *Cycle {
	return &Cycle{
		id:        uuid.NewString(),
		kind:      kind,
		trigger:   trigger,
		startedAt: time.Now(),
	}
}

// ID uniquely identifies the cycle in logs, traces and the journal.
func (c *Cycle) ID() string { return c.id }

// Kind returns whether this is the startup cycle or a reload.
func (c *Cycle) Kind() CycleKind { return c.kind }

// Initial reports whether this is the startup cycle.
func (c *Cycle) Initial() bool { return c.kind == CycleStartup }

// Trigger describes what started the cycle, e.g. "signal:SIGHUP".
func (c *Cycle) Trigger() string { return c.trigger }

// StartedAt returns when the cycle began.
func (c *Cycle) StartedAt() time.Time { return c.startedAt }

// OnCommit registers fn to run after the new snapshot is committed and
// before PostConfig hooks. Callbacks run in registration order.
func (c *Cycle) OnCommit(fn func()) {
	c.onCommit = append(c.onCommit, fn)
}

// OnAbort registers fn to run if the cycle is rejected. Callbacks run in
// reverse registration order.
func (c *Cycle) OnAbort(fn func()) {
	c.onAbort = append(c.onAbort, fn)
}

// commit runs every commit callback, even after one panics, and returns
// the recovered panics.
func (c *Cycle) commit() error {
	if c.done {
		return nil
	}
	c.done = true
	var errs []error
	for _, fn := range c.onCommit {
		if err := safeCall(func() error { fn(); return nil }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Cycle) abort() {
	if c.done {
		return
	}
	c.done = true
	for i := len(c.onAbort) - 1; i >= 0; i-- {
		_ = safeCall(func() error { c.onAbort[i](); return nil })
	}
}
