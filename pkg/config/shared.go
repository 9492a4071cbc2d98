package config

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNilSnapshot is returned by Commit when given a nil snapshot.
var ErrNilSnapshot = errors.New("config: nil snapshot")

// StaleVersionError is returned by Commit when the snapshot's version does
// not exceed the version currently held.
type StaleVersionError struct {
	Current  uint64
	Proposed uint64
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("config: version %d is not newer than current version %d", e.Proposed, e.Current)
}

// Snapshot is an immutable, versioned configuration value. A *Snapshot held
// by a reader stays valid and unchanged after newer snapshots are committed.
//
// Value returns C by value. When C contains maps, slices or pointers the
// caller must treat what they reference as read-only.
type Snapshot[C any] struct {
	value    C
	version  uint64
	loadedAt time.Time
}

// NewSnapshot builds a snapshot. Versions start at 1.
func NewSnapshot[C any](value C, version uint64, loadedAt time.Time) *Snapshot[C] {
	return &Snapshot[C]{value: value, version: version, loadedAt: loadedAt}
}

// Value returns the configuration payload.
func (s *Snapshot[C]) Value() C { return s.value }

// Version returns the snapshot's version.
func (s *Snapshot[C]) Version() uint64 { return s.version }

// LoadedAt returns when the payload was loaded.
func (s *Snapshot[C]) LoadedAt() time.Time { return s.loadedAt }

// Shared holds the current snapshot. Get is wait-free; Commit replaces the
// snapshot atomically so concurrent readers observe either the previous
// snapshot or the new one, never a mix.
//
// The zero value is ready to use and holds no snapshot.
type Shared[C any] struct {
	current atomic.Pointer[Snapshot[C]]

	// mu serializes writers; readers never take it.
	mu sync.Mutex
}

// NewShared returns an empty cell.
func NewShared[C any]() *Shared[C] {
	return &Shared[C]{}
}

// Get returns the snapshot current at call time, or nil before the first
// commit.
func (s *Shared[C]) Get() *Snapshot[C] {
	return s.current.Load()
}

// Version returns the current version, or 0 before the first commit.
func (s *Shared[C]) Version() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.version
	}
	return 0
}

// Commit installs snap as the current snapshot. It fails with a
// *StaleVersionError when snap.Version() is not greater than the version
// already held, leaving the cell unchanged.
func (s *Shared[C]) Commit(snap *Snapshot[C]) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current.Load(); cur != nil && snap.version <= cur.version {
		return &StaleVersionError{Current: cur.version, Proposed: snap.version}
	}
	s.current.Store(snap)
	return nil
}

// Next builds the snapshot that would follow the current one, stamped with
// the current time. It does not commit it.
func (s *Shared[C]) Next(value C) *Snapshot[C] {
	return NewSnapshot(value, s.Version()+1, time.Now())
}
