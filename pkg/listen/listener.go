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

// Handler serves one accepted connection. The connection is closed when
// ServeConn returns. ctx is cancelled when the daemon shuts down.
type Handler interface {
	ServeConn(ctx context.Context, conn net.Conn)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, conn net.Conn)

// ServeConn calls f.
func (f HandlerFunc) ServeConn(ctx context.Context, conn net.Conn) { f(ctx, conn) }

// listener is one bound socket with its live limits.
type listener struct {
	address string
	ln      net.Listener
	logger  *slog.Logger

	// limit is nil when connections are unlimited. It is replaced, not
	// resized, when max_conn changes; connections release the semaphore
	// they acquired.
	limit      atomic.Pointer[semaphore.Weighted]
	maxConn    atomic.Int64
	errorSleep atomic.Int64

	stop    context.CancelFunc
	started bool
	closed  sync.Once
	done    chan struct{}
}

func bind(e Endpoint, logger *slog.Logger) (*listener, error) {
	ln, err := net.Listen("tcp", e.Address)
	if err != nil {
		return nil, err
	}
	l := &listener{
		address: e.Address,
		ln:      ln,
		logger:  logger.With("address", e.Address, "bound", ln.Addr().String()),
		done:    make(chan struct{}),
	}
	l.configure(e)
	return l, nil
}

// configure applies the limits of e.
func (l *listener) configure(e Endpoint) {
	if old := l.maxConn.Swap(e.MaxConn); old != e.MaxConn {
		if e.MaxConn > 0 {
			l.limit.Store(semaphore.NewWeighted(e.MaxConn))
		} else {
			l.limit.Store(nil)
		}
	}
	l.errorSleep.Store(int64(e.errorSleep()))
}

// start launches the accept loop. Connections run on wg with connCtx.
func (l *listener) start(connCtx context.Context, wg *sync.WaitGroup, h Handler) {
	acceptCtx, stop := context.WithCancel(connCtx)
	l.stop = stop
	l.started = true
	go l.serve(acceptCtx, connCtx, wg, h)
}

// serve accepts until the listener is closed.
func (l *listener) serve(acceptCtx, connCtx context.Context, wg *sync.WaitGroup, h Handler) {
	defer close(l.done)
	l.logger.Info("listener started")

	for {
		sem := l.limit.Load()
		if sem != nil {
			if err := sem.Acquire(acceptCtx, 1); err != nil {
				return
			}
		}
		release := func() {
			if sem != nil {
				sem.Release(1)
			}
		}

		conn, err := l.ln.Accept()
		if err != nil {
			release()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			sleep := time.Duration(l.errorSleep.Load())
			l.logger.Warn("accept failed", "error", err, "sleep", sleep)
			select {
			case <-acceptCtx.Done():
				return
			case <-time.After(sleep):
			}
			continue
		}

		wg.Go(func() {
			defer release()
			defer conn.Close()
			h.ServeConn(connCtx, conn)
		})
	}
}

// close stops accepting and waits for the accept loop to exit.
// Connections already accepted keep running.
func (l *listener) close() {
	l.closed.Do(func() {
		if l.stop != nil {
			l.stop()
		}
		_ = l.ln.Close()
		if l.started {
			<-l.done
		}
		l.logger.Info("listener closed")
	})
}
