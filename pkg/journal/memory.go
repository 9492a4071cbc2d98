package journal

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity is used when NewMemory is given a non-positive
// capacity.
const DefaultMemoryCapacity = 256

// Memory keeps the most recent entries in a ring buffer.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	closed  bool
}

// NewMemory returns a journal holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{entries: make([]Entry, capacity)}
}

// Record appends e, evicting the oldest entry when full.
func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	e.Changed = append([]string(nil), e.Changed...)
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (m *Memory) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	n := m.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

// Prune removes entries that started before cutoff.
func (m *Memory) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	n := m.lenLocked()
	kept := make([]Entry, 0, n)
	for i := n - 1; i >= 0; i-- {
		idx := (m.next - 1 - i + len(m.entries)) % len(m.entries)
		if !m.entries[idx].StartedAt.Before(cutoff) {
			kept = append(kept, m.entries[idx])
		}
	}

	removed := int64(n - len(kept))
	if removed == 0 {
		return 0, nil
	}

	fresh := make([]Entry, len(m.entries))
	copy(fresh, kept)
	m.entries = fresh
	m.next = len(kept) % len(fresh)
	m.full = len(kept) == len(fresh)
	return removed, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lenLocked()
}

func (m *Memory) lenLocked() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}

// Close discards all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = make([]Entry, 1)
	m.next = 0
	m.full = false
	return nil
}
