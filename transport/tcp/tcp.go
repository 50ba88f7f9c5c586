// Package tcp adapts operating system TCP sockets to [transport.Conn].
package tcp

import (
	"context"
	"io"
	"net"
	"strconv"
	"syscall"
	"time"

	"peer-chat/transport"

	"github.com/pkg/errors"
)

type Addr struct {
	host string
	port uint16
}

var _ transport.Addr = Addr{}

func NewAddr(host string, port uint16) transport.Addr {
	return Addr{host: host, port: port}
}

func (a Addr) Network() string { return string(transport.TCP) }
func (a Addr) Host() string    { return a.host }
func (a Addr) Port() uint16    { return a.port }

func (a Addr) String() string {
	return net.JoinHostPort(a.host, strconv.FormatUint(uint64(a.port), 10))
}

type conn struct{ nc net.Conn }

var _ transport.Conn = (*conn)(nil)

// Wrap adapts an established [net.Conn].
func Wrap(nc net.Conn) transport.Conn { return &conn{nc: nc} }

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.nc.Read(p)
	return n, translateErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.nc.Write(p)
	return n, translateErr(err)
}

func (c *conn) Close() error { return c.nc.Close() }

func (c *conn) LocalAddr() transport.Addr  { return c.nc.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.nc.RemoteAddr() }

func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }

func translateErr(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return transport.ErrConnClosed
	case errors.As(err, &netErr) && netErr.Timeout():
		return transport.ErrDeadLineExceeded
	case errors.Is(err, syscall.ECONNREFUSED):
		return transport.ErrConnRefused
	}

	return err
}

type Listener struct {
	l *net.TCPListener
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen binds host:port. Port 0 picks an ephemeral port.
func Listen(host string, port uint16) (*Listener, error) {
	l, err := net.Listen("tcp", NewAddr(host, port).String())
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, transport.ErrAddrAlreadyInUse
		}
		return nil, errors.Wrap(err, "binding listener")
	}

	return &Listener{l: l.(*net.TCPListener)}, nil
}

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	// Unblock Accept on cancellation.
	stop := context.AfterFunc(ctx, func() {
		_ = l.l.SetDeadline(time.Now())
	})
	defer stop()

	nc, err := l.l.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "accepting connection")
	}

	return Wrap(nc), nil
}

func (l *Listener) Addr() transport.Addr { return l.l.Addr() }

func (l *Listener) Close() error { return l.l.Close() }

type Dialer struct {
	Timeout time.Duration
}

var _ transport.ConnDialer = Dialer{}

func (d Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	nc, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		if te := translateErr(err); te == transport.ErrConnRefused || te == transport.ErrDeadLineExceeded {
			return nil, te
		}
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return Wrap(nc), nil
}
