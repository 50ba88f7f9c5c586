package transport

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")
	ErrConnRefused        = errors.New("connection refused")
	ErrNetUnreachable     = errors.New("network unreachable")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
)

// Conn is a bidirectional byte stream.
// Read returns [ErrConnClosed] once either side has closed and no bytes remain,
// and [ErrDeadLineExceeded] once the read deadline passes.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Addr() Addr
	Close() error
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}

// CombineAddrFunc builds a dialable address from an advertised host and port.
type CombineAddrFunc func(host string, port uint16) Addr

// StreamReader reads c until the peer closes, reporting the close as [io.EOF].
func StreamReader(c Conn) io.Reader { return streamReader{c} }

type streamReader struct{ con Conn }

func (r streamReader) Read(p []byte) (int, error) {
	n, err := r.con.Read(p)
	if errors.Is(err, ErrConnClosed) {
		err = io.EOF
	}
	return n, err
}
