// Package journal records the outcome of every configuration and shutdown
// cycle so operators can see what changed, when, and why a reload was
// rejected.
package journal

import (
	"context"
	"errors"
	"time"
)

// Outcome is the result of a cycle.
type Outcome string

const (
	// OutcomeCommitted means a configuration was committed.
	OutcomeCommitted Outcome = "committed"

	// OutcomeRejected means a configuration cycle was discarded.
	OutcomeRejected Outcome = "rejected"

	// OutcomeClean means shutdown completed within every budget.
	OutcomeClean Outcome = "clean"

	// OutcomeDegraded means shutdown abandoned bodies or terminate hooks.
	OutcomeDegraded Outcome = "degraded"

	// OutcomeFailed means a body failed but cleanup completed.
	OutcomeFailed Outcome = "failed"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal: closed")

// Entry is one recorded cycle.
type Entry struct {
	// ID is the cycle ID.
	ID string `json:"id"`

	// Kind is "startup", "reload" or "shutdown".
	Kind string `json:"kind"`

	// Trigger describes what started the cycle.
	Trigger string `json:"trigger,omitempty"`

	// Outcome is the cycle result.
	Outcome Outcome `json:"outcome"`

	// Version is the live configuration version after the cycle.
	Version uint64 `json:"version"`

	// Changed lists configuration paths changed by a committed reload.
	Changed []string `json:"changed,omitempty"`

	// Error is the failure message, if any.
	Error string `json:"error,omitempty"`

	// StartedAt is when the cycle began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the cycle took.
	Duration time.Duration `json:"duration"`
}

// Journal stores entries. Implementations must be safe for concurrent use.
type Journal interface {
	// Record appends an entry.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Prune deletes entries that started before cutoff and returns how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources.
	Close() error
}
