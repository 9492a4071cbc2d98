package listen

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"mercator-hq/keeper/pkg/lifecycle"
)

// UDPSet keeps a group of UDP sockets in step with the configuration. It
// follows the same rules as Set: new addresses are bound while the cycle
// validates, installed on commit and closed again on abort. Each datagram
// is served on its own goroutine, capped by max_conn.
type UDPSet[C any] struct {
	name    string
	extract func(C) []Endpoint
	handler PacketHandler
	logger  *slog.Logger

	mu         sync.Mutex
	active     map[string]*socket
	running    bool
	handlerCtx context.Context
	handlers   sync.WaitGroup
}

// NewUDP returns a UDPSet named name. extract selects the endpoints from
// each configuration and h serves every datagram.
func NewUDP[C any](name string, extract func(C) []Endpoint, h PacketHandler) *UDPSet[C] {
	return &UDPSet[C]{
		name:    name,
		extract: extract,
		handler: h,
		logger:  slog.Default(),
		active:  make(map[string]*socket),
	}
}

// Apply registers the validator and body of the set.
func (s *UDPSet[C]) Apply(ctl *lifecycle.Controller[C]) error {
	s.logger = ctl.Logger().With("listen_udp", s.name)

	if err := ctl.OnValidate("listen_udp:"+s.name, s.validate); err != nil {
		return err
	}
	return ctl.OnBody("listen_udp:"+s.name, s.run)
}

// Addr returns the bound address of the socket configured as address, or
// nil.
func (s *UDPSet[C]) Addr(address string) net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sock, ok := s.active[address]; ok {
		return sock.pc.LocalAddr()
	}
	return nil
}

// Len returns the number of active sockets.
func (s *UDPSet[C]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *UDPSet[C]) validate(_ context.Context, cycle *lifecycle.Cycle, cfg C) error {
	endpoints := s.extract(cfg)
	if err := Validate(endpoints); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []*socket
	discard := func() {
		for _, sock := range fresh {
			sock.close()
		}
	}

	for _, e := range endpoints {
		if _, ok := s.active[e.Address]; ok {
			continue
		}
		sock, err := bindPacket(e, s.logger)
		if err != nil {
			discard()
			return fmt.Errorf("bind udp %s: %w", e.Address, err)
		}
		fresh = append(fresh, sock)
	}

	cycle.OnCommit(func() { s.install(endpoints, fresh) })
	cycle.OnAbort(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		discard()
	})
	return nil
}

func (s *UDPSet[C]) install(endpoints []Endpoint, fresh []*socket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]Endpoint, len(endpoints))
	for _, e := range endpoints {
		wanted[e.Address] = e
	}

	for addr, sock := range s.active {
		if e, ok := wanted[addr]; ok {
			sock.configure(e)
			continue
		}
		sock.close()
		delete(s.active, addr)
	}
	for _, sock := range fresh {
		s.active[sock.address] = sock
		if s.running {
			sock.start(s.handlerCtx, &s.handlers, s.handler)
		}
	}
}

// run reads from every active socket until ctx is cancelled, then closes
// the sockets and waits for running handlers.
func (s *UDPSet[C]) run(ctx context.Context, _ *lifecycle.Runtime[C]) error {
	s.mu.Lock()
	s.running = true
	s.handlerCtx = ctx
	for _, sock := range s.active {
		sock.start(ctx, &s.handlers, s.handler)
	}
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.running = false
	for addr, sock := range s.active {
		sock.close()
		delete(s.active, addr)
	}
	s.mu.Unlock()

	s.handlers.Wait()
	return nil
}
