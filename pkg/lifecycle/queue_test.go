package lifecycle

import (
	"testing"

	"mercator-hq/keeper/pkg/event"
)

func drain(q *actionQueue) []event.Action {
	var out []event.Action
	for {
		a, ok := q.next()
		if !ok {
			return out
		}
		out = append(out, a)
		if a.Kind == event.KindTerminate {
			return out
		}
	}
}

func TestQueueCoalescesReloads(t *testing.T) {
	q := newActionQueue()

	q.post(event.Reload())
	q.post(event.Custom("rotate"))
	q.post(event.Reload())
	q.post(event.Reload())

	got := drain(q)
	if len(got) != 2 || got[0].Kind != event.KindReload || got[1].Tag != "rotate" {
		t.Fatalf("expected [reload custom:rotate], got %+v", got)
	}
	if q.coalesced() != 2 {
		t.Errorf("expected 2 coalesced reloads, got %d", q.coalesced())
	}

	q.post(event.Reload())
	if got := drain(q); len(got) != 1 {
		t.Errorf("expected reload after drain to be queued, got %+v", got)
	}
}

func TestQueueTerminateWins(t *testing.T) {
	q := newActionQueue()

	q.post(event.Reload())
	q.post(event.Terminate().From("first"))
	if q.post(event.Terminate().From("second")) {
		t.Error("expected duplicate terminate to be ignored")
	}

	a, ok := q.next()
	if !ok || a.Kind != event.KindTerminate || a.Source != "first" {
		t.Fatalf("expected first terminate, got %+v", a)
	}
	if q.post(event.Reload()) {
		t.Error("expected queue to refuse actions after terminate")
	}
}

func TestQueueNotifies(t *testing.T) {
	q := newActionQueue()
	q.post(event.Reload())
	q.post(event.Custom("x"))

	select {
	case <-q.ready():
	default:
		t.Fatal("expected notification")
	}
	select {
	case <-q.ready():
		t.Fatal("expected notifications to coalesce")
	default:
	}
}

func TestQueueTerminateInterruptsCycle(t *testing.T) {
	q := newActionQueue()

	calls := 0
	q.setInterrupt(func() { calls++ })
	q.post(event.Reload())
	if calls != 0 {
		t.Fatalf("reload must not interrupt, got %d calls", calls)
	}
	q.post(event.Terminate())
	if calls != 1 {
		t.Fatalf("expected terminate to interrupt once, got %d", calls)
	}

	q.setInterrupt(nil)
	late := 0
	q.setInterrupt(func() { late++ })
	if late != 1 {
		t.Errorf("expected pending terminate to interrupt a new cycle at once, got %d", late)
	}
}
