package config

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type pair struct {
	A int
	B int
}

func TestSharedEmpty(t *testing.T) {
	s := NewShared[pair]()
	if s.Get() != nil {
		t.Fatal("expected nil snapshot before first commit")
	}
	if s.Version() != 0 {
		t.Errorf("expected version 0, got %d", s.Version())
	}
}

func TestSharedCommit(t *testing.T) {
	s := NewShared[pair]()

	first := s.Next(pair{A: 1, B: 1})
	if err := s.Commit(first); err != nil {
		t.Fatalf("commit: %v", err)
	}
	held := s.Get()

	if err := s.Commit(s.Next(pair{A: 2, B: 2})); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := s.Get(); got.Version() != 2 || got.Value().A != 2 {
		t.Errorf("expected version 2 with A=2, got version %d A=%d", got.Version(), got.Value().A)
	}
	if held.Version() != 1 || held.Value().A != 1 {
		t.Errorf("held snapshot changed: version %d A=%d", held.Version(), held.Value().A)
	}
}

func TestSharedRejectsStaleVersion(t *testing.T) {
	s := NewShared[pair]()
	if err := s.Commit(NewSnapshot(pair{A: 5}, 5, time.Now())); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for _, v := range []uint64{5, 4} {
		err := s.Commit(NewSnapshot(pair{A: 9}, v, time.Now()))
		var stale *StaleVersionError
		if !errors.As(err, &stale) {
			t.Fatalf("expected StaleVersionError for version %d, got %v", v, err)
		}
	}
	if got := s.Get(); got.Version() != 5 || got.Value().A != 5 {
		t.Errorf("cell changed after rejected commit: %+v", got)
	}

	if err := s.Commit(nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("expected ErrNilSnapshot, got %v", err)
	}
}

func TestSharedConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	s := NewShared[pair]()
	if err := s.Commit(s.Next(pair{})); err != nil {
		t.Fatal(err)
	}

	const commits = 500
	done := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, 8)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := s.Get()
				v := snap.Value()
				if v.A != v.B {
					errs <- "torn snapshot"
					return
				}
				if snap.Version() < last {
					errs <- "version went backwards"
					return
				}
				last = snap.Version()
			}
		}()
	}

	for i := 1; i <= commits; i++ {
		if err := s.Commit(s.Next(pair{A: i, B: i})); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
	if s.Version() != commits+1 {
		t.Errorf("expected version %d, got %d", commits+1, s.Version())
	}
}
