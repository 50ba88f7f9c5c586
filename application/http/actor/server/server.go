package server

import (
	"context"
	"log/slog"
	"sync"

	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

type Server struct {
	l transport.ConnListener

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	sem *semaphore.Weighted

	logger *slog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	s := &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}
	if opts.MaxConns > 0 {
		s.sem = semaphore.NewWeighted(opts.MaxConns)
	}

	return s
}

func (s *Server) Addr() transport.Addr { return s.l.Addr() }

// Start accepts connections in the background until [Server.Close].
// Every connection is served by its own goroutine.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			if err := s.acquire(ctx); err != nil {
				return
			}

			conn, err := s.acceptConn(ctx)
			if err != nil {
				s.release()
				if !errors.Is(err, context.Canceled) {
					s.logger.Error(
						"unexpected error when accepting connection",
						"error", err.Error(),
					)
				}
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.release()
				conn.start(ctx)
			}()
		}
	}()
}

func (s *Server) acquire(ctx context.Context) error {
	if s.sem == nil {
		return ctx.Err()
	}
	return s.sem.Acquire(ctx, 1)
}

func (s *Server) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *Server) acceptConn(ctx context.Context) (*conn, error) {
	con, err := s.l.Accept(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listening for connection")
	}

	conn := &conn{
		con:    con,
		handle: s.handle,
		opts:   s.opts.Serve,
		logger: s.logger.With("conn", con.RemoteAddr().String()),
		clock:  s.clock,
	}

	return conn, nil
}

// Close stops accepting, abandons in-flight connections and closes the listener.
func (s *Server) Close() error {
	if s.cancel == nil {
		return s.l.Close()
	}

	s.cancel()
	<-s.done
	s.wg.Wait()

	if err := s.l.Close(); err != nil && !errors.Is(err, transport.ErrConnListenerClosed) {
		return errors.Wrap(err, "closing listener")
	}
	return nil
}
