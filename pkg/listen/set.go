package listen

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"mercator-hq/keeper/pkg/lifecycle"
)

// Set keeps a group of TCP listeners in step with the configuration.
//
// New addresses are bound while a cycle validates, so a port that cannot
// be bound rejects the whole configuration. On commit the new sockets start
// accepting and listeners whose address disappeared are closed; on abort
// the freshly bound sockets are closed again. Listeners whose address is
// unchanged keep their socket and pick up new limits.
type Set[C any] struct {
	name    string
	extract func(C) []Endpoint
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	active  map[string]*listener
	running bool
	connCtx context.Context
	conns   sync.WaitGroup
}

// New returns a Set named name. extract selects the endpoints from each
// configuration and h serves every accepted connection.
func New[C any](name string, extract func(C) []Endpoint, h Handler) *Set[C] {
	return &Set[C]{
		name:    name,
		extract: extract,
		handler: h,
		logger:  slog.Default(),
		active:  make(map[string]*listener),
	}
}

// Apply registers the validator and body of the set.
func (s *Set[C]) Apply(ctl *lifecycle.Controller[C]) error {
	s.logger = ctl.Logger().With("listen", s.name)

	if err := ctl.OnValidate("listen:"+s.name, s.validate); err != nil {
		return err
	}
	return ctl.OnBody("listen:"+s.name, s.run)
}

// Addr returns the bound address of the listener configured as address,
// or nil.
func (s *Set[C]) Addr(address string) net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.active[address]; ok {
		return l.ln.Addr()
	}
	return nil
}

// Len returns the number of active listeners.
func (s *Set[C]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Set[C]) validate(_ context.Context, cycle *lifecycle.Cycle, cfg C) error {
	endpoints := s.extract(cfg)
	if err := Validate(endpoints); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []*listener
	discard := func() {
		for _, l := range fresh {
			l.close()
		}
	}

	for _, e := range endpoints {
		if _, ok := s.active[e.Address]; ok {
			continue
		}
		l, err := bind(e, s.logger)
		if err != nil {
			discard()
			return fmt.Errorf("bind %s: %w", e.Address, err)
		}
		fresh = append(fresh, l)
	}

	cycle.OnCommit(func() { s.install(endpoints, fresh) })
	cycle.OnAbort(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		discard()
	})
	return nil
}

// install makes endpoints the active set.
func (s *Set[C]) install(endpoints []Endpoint, fresh []*listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]Endpoint, len(endpoints))
	for _, e := range endpoints {
		wanted[e.Address] = e
	}

	for addr, l := range s.active {
		if _, ok := wanted[addr]; !ok {
			l.close()
			delete(s.active, addr)
		}
	}
	for addr, l := range s.active {
		l.configure(wanted[addr])
	}
	for _, l := range fresh {
		s.active[l.address] = l
		if s.running {
			l.start(s.connCtx, &s.conns, s.handler)
		}
	}
}

// run starts accepting on every active listener and serves until ctx is
// cancelled, then closes the listeners and waits for open connections.
func (s *Set[C]) run(ctx context.Context, _ *lifecycle.Runtime[C]) error {
	s.mu.Lock()
	s.running = true
	s.connCtx = ctx
	for _, l := range s.active {
		l.start(ctx, &s.conns, s.handler)
	}
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.running = false
	for addr, l := range s.active {
		l.close()
		delete(s.active, addr)
	}
	s.mu.Unlock()

	s.conns.Wait()
	return nil
}
