package listen

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// MaxDatagram is the largest payload read from a UDP socket.
const MaxDatagram = 64 * 1024

// PacketHandler serves one datagram. payload is owned by the handler;
// replies go through conn to from. ctx is cancelled when the daemon
// shuts down.
type PacketHandler interface {
	ServePacket(ctx context.Context, conn net.PacketConn, from net.Addr, payload []byte)
}

// PacketHandlerFunc adapts a function to PacketHandler.
type PacketHandlerFunc func(ctx context.Context, conn net.PacketConn, from net.Addr, payload []byte)

// ServePacket calls f.
func (f PacketHandlerFunc) ServePacket(ctx context.Context, conn net.PacketConn, from net.Addr, payload []byte) {
	f(ctx, conn, from, payload)
}

// socket is one bound UDP socket. MaxConn caps datagrams handled at once.
type socket struct {
	address string
	pc      net.PacketConn
	logger  *slog.Logger

	limit      atomic.Pointer[semaphore.Weighted]
	maxConn    atomic.Int64
	errorSleep atomic.Int64

	stop    context.CancelFunc
	started bool
	closed  sync.Once
	done    chan struct{}
}

func bindPacket(e Endpoint, logger *slog.Logger) (*socket, error) {
	pc, err := net.ListenPacket("udp", e.Address)
	if err != nil {
		return nil, err
	}
	s := &socket{
		address: e.Address,
		pc:      pc,
		logger:  logger.With("address", e.Address, "bound", pc.LocalAddr().String()),
		done:    make(chan struct{}),
	}
	s.configure(e)
	return s, nil
}

func (s *socket) configure(e Endpoint) {
	if old := s.maxConn.Swap(e.MaxConn); old != e.MaxConn {
		if e.MaxConn > 0 {
			s.limit.Store(semaphore.NewWeighted(e.MaxConn))
		} else {
			s.limit.Store(nil)
		}
	}
	s.errorSleep.Store(int64(e.errorSleep()))
}

func (s *socket) start(handlerCtx context.Context, wg *sync.WaitGroup, h PacketHandler) {
	readCtx, stop := context.WithCancel(handlerCtx)
	s.stop = stop
	s.started = true
	go s.serve(readCtx, handlerCtx, wg, h)
}

// serve reads until the socket is closed.
func (s *socket) serve(readCtx, handlerCtx context.Context, wg *sync.WaitGroup, h PacketHandler) {
	defer close(s.done)
	s.logger.Info("udp socket started")

	buf := make([]byte, MaxDatagram)
	for {
		sem := s.limit.Load()
		if sem != nil {
			if err := sem.Acquire(readCtx, 1); err != nil {
				return
			}
		}
		release := func() {
			if sem != nil {
				sem.Release(1)
			}
		}

		n, from, err := s.pc.ReadFrom(buf)
		if err != nil {
			release()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			sleep := time.Duration(s.errorSleep.Load())
			s.logger.Warn("read failed", "error", err, "sleep", sleep)
			select {
			case <-readCtx.Done():
				return
			case <-time.After(sleep):
			}
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		wg.Go(func() {
			defer release()
			h.ServePacket(handlerCtx, s.pc, from, payload)
		})
	}
}

// close stops reading and waits for the read loop to exit. Handlers still
// running may fail to reply.
func (s *socket) close() {
	s.closed.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		_ = s.pc.Close()
		if s.started {
			<-s.done
		}
		s.logger.Info("udp socket closed")
	})
}
