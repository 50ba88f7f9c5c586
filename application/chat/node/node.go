// Package node runs a chat peer: it receives raw messages on its own
// address, registers with the directory and connects to the peers it finds.
package node

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/msglog"
	iolib "peer-chat/lib/io"
	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Runtime struct {
	listener transport.ConnListener
	dir      directory.Service
	logs     *msglog.Store

	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

func New(
	l transport.ConnListener,
	dir directory.Service,
	logs *msglog.Store,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Runtime {
	return &Runtime{
		listener: l,
		dir:      dir,
		logs:     logs,
		logger:   logger.With("peer", opts.ID),
		clock:    clock,
		opts:     opts,
	}
}

// Run serves inbound messages and registers the node until ctx is done.
// The listener is closed on return.
func (r *Runtime) Run(ctx context.Context) error {
	defer r.listener.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.listen(ctx) })
	g.Go(func() error {
		if err := r.register(ctx); err != nil {
			return err
		}
		return r.autoConnect(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runtime) listen(ctx context.Context) error {
	r.logger.Info("listening for messages", "addr", r.listener.Addr().String())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		con, err := r.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrConnListenerClosed) {
				return ctx.Err()
			}
			return errors.Wrap(err, "accepting message")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			r.receive(ctx, con)
		}()
	}
}

// receive stores one inbound message, which lasts until the sender closes.
func (r *Runtime) receive(ctx context.Context, con transport.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = con.Close() })
	defer stop()
	defer con.Close()

	logger := r.logger.With("remote", con.RemoteAddr().String())

	if r.opts.ReadTimeout > 0 {
		con.SetReadDeadLine(r.clock.Now().Add(r.opts.ReadTimeout))
	}

	var src io.Reader = transport.StreamReader(con)
	if r.opts.MaxMessageBytes > 0 {
		src = iolib.LimitReader(src, r.opts.MaxMessageBytes)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		logger.Warn("incomplete message", "error", err, "bytes", len(data))
	}
	if len(data) == 0 {
		return
	}

	if _, err := r.logs.Append(r.opts.ID, msglog.DirectionRecv, string(data)); err != nil {
		logger.Error("failed to record message", "error", err)
		return
	}
	logger.Info("received message", "bytes", len(data))
}

// register retries until the directory accepts the node.
func (r *Runtime) register(ctx context.Context) error {
	self := directory.Peer{
		ID:     r.opts.ID,
		Host:   r.opts.Host,
		Port:   r.opts.Port,
		Status: r.opts.Status,
	}

	for {
		p, err := r.dir.Register(ctx, self)
		if err == nil {
			r.logger.Info("registered with directory", "addr", p.Addr(), "status", p.Status)
			return nil
		}
		if errors.Is(err, directory.ErrValidation) {
			return err
		}

		r.logger.Warn("directory unavailable, retrying registration", "error", err, "in", r.opts.RetryInterval)
		if err := r.sleep(ctx, r.opts.RetryInterval); err != nil {
			return err
		}
	}
}

// autoConnect polls the directory and connects to every peer it lists.
// It stops after the first sweep that connects to every visible peer;
// peers that register later are not picked up.
func (r *Runtime) autoConnect(ctx context.Context) error {
	known := make(map[string]bool)

	for {
		done, err := r.sweep(ctx, known)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("auto-connect failed, retrying", "error", err, "in", r.opts.RetryInterval)
			err = r.sleep(ctx, r.opts.RetryInterval)
		case done:
			r.logger.Info("connected to every visible peer", "count", len(known))
			return nil
		default:
			err = r.sleep(ctx, r.opts.PollInterval)
		}
		if err != nil {
			return err
		}
	}
}

// sweep connects to the listed peers not yet in known.
// done reports that at least one other peer is visible and all are connected.
func (r *Runtime) sweep(ctx context.Context, known map[string]bool) (done bool, err error) {
	peers, err := r.dir.List(ctx)
	if err != nil {
		return false, errors.Wrap(err, "listing peers")
	}

	visible := 0
	for _, p := range peers {
		if p.ID == r.opts.ID {
			continue
		}
		visible++
		if known[p.ID] {
			continue
		}

		if _, err := r.dir.Connect(ctx, r.opts.ID, p.ID); err != nil {
			return false, errors.Wrapf(err, "connecting to %q", p.ID)
		}
		known[p.ID] = true
		r.logger.Info("connected to peer", "to", p.ID)
	}

	return visible > 0, nil
}

func (r *Runtime) sleep(ctx context.Context, d time.Duration) error {
	t := r.clock.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
