package lifecycle

import (
	"sync"

	"github.com/eapache/queue"

	"mercator-hq/keeper/pkg/event"
)

// actionQueue is the controller's inbox. Reload requests coalesce while one
// is already waiting, and a pending Terminate is always dequeued first.
// Post never blocks.
type actionQueue struct {
	mu              sync.Mutex
	pending         *queue.Queue
	reloadQueued    bool
	terminate       *event.Action
	closed          bool
	notify          chan struct{}
	coalescedReload uint64

	// interrupt cancels the cycle in progress when a Terminate arrives.
	interrupt func()
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		pending: queue.New(),
		notify:  make(chan struct{}, 1),
	}
}

// post enqueues a and reports whether it was accepted as a new entry.
func (q *actionQueue) post(a event.Action) bool {
	q.mu.Lock()
	switch {
	case q.closed:
		q.mu.Unlock()
		return false
	case a.Kind == event.KindTerminate:
		if q.terminate != nil {
			q.mu.Unlock()
			return false
		}
		q.terminate = &a
		if q.interrupt != nil {
			q.interrupt()
		}
	case a.Kind == event.KindReload && q.reloadQueued:
		q.coalescedReload++
		q.mu.Unlock()
		return false
	default:
		if a.Kind == event.KindReload {
			q.reloadQueued = true
		}
		q.pending.Add(a)
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// setInterrupt installs fn as the cancel function of the running cycle, or
// clears it when fn is nil. fn runs at once if a Terminate is already
// pending.
func (q *actionQueue) setInterrupt(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.interrupt = fn
	if fn != nil && q.terminate != nil {
		fn()
	}
}

// next pops the next action. A pending terminate wins over everything.
func (q *actionQueue) next() (event.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.terminate != nil {
		a := *q.terminate
		q.closed = true
		return a, true
	}
	if q.pending.Length() == 0 {
		return event.Action{}, false
	}

	a := q.pending.Remove().(event.Action)
	if a.Kind == event.KindReload {
		q.reloadQueued = false
	}
	return a, true
}

func (q *actionQueue) ready() <-chan struct{} {
	return q.notify
}

func (q *actionQueue) coalesced() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.coalescedReload
}
