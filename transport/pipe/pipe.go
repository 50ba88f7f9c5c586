// Package pipe provides synchronous in-memory connections whose deadlines
// follow an injected clock, so that timeout behavior is testable with a mock.
package pipe

import (
	"sync"
	"time"

	"peer-chat/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct {
	Name string
}

var _ transport.Addr = Addr{}

func (a Addr) Network() string { return string(transport.Pipe) }
func (a Addr) String() string  { return a.Name }

type Conn struct {
	stream chan []byte // stream that this end reads from.
	nc     chan int    // bytes consumed by the counterpart.

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once

	rdeadLine *chanDeadLine
	wdeadLine *chanDeadLine

	counterpart *Conn

	addr Addr
}

var _ transport.Conn = (*Conn)(nil)

// NewPair creates two connected ends. Writes block until the other end reads.
func NewPair(name1, name2 string, clock clock.Clock) (c1, c2 *Conn) {
	c1 = newConn(name1, clock)
	c2 = newConn(name2, clock)
	c1.counterpart, c2.counterpart = c2, c1
	return c1, c2
}

func newConn(name string, clock clock.Clock) *Conn {
	return &Conn{
		stream:    make(chan []byte),
		nc:        make(chan int),
		closed:    make(chan struct{}),
		rdeadLine: newChanDeadLine(clock),
		wdeadLine: newChanDeadLine(clock),
		addr:      Addr{Name: name},
	}
}

func (c *Conn) LocalAddr() transport.Addr  { return c.addr }
func (c *Conn) RemoteAddr() transport.Addr { return c.counterpart.addr }

func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *Conn) Read(b []byte) (int, error) {
	if err := c.checkOK(c.rdeadLine); err != nil {
		return 0, err
	}

	select {
	case received := <-c.stream:
		n := copy(b, received)
		c.counterpart.nc <- n
		return n, nil
	case <-c.closed:
		return 0, transport.ErrConnClosed
	case <-c.counterpart.closed:
		return 0, transport.ErrConnClosed
	case <-c.rdeadLine.wait():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (c *Conn) Write(b []byte) (int, error) {
	if err := c.checkOK(c.wdeadLine); err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}

	// Serialize writers so their bytes never interleave.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	nn := 0
	for len(b) > 0 {
		select {
		case c.counterpart.stream <- b:
			n := <-c.nc
			b = b[n:]
			nn += n
		case <-c.closed:
			return nn, transport.ErrConnClosed
		case <-c.counterpart.closed:
			return nn, transport.ErrConnClosed
		case <-c.wdeadLine.wait():
			return nn, transport.ErrDeadLineExceeded
		}
	}

	return nn, nil
}

func (c *Conn) checkOK(d *chanDeadLine) error {
	switch {
	case isClosed(c.closed), isClosed(c.counterpart.closed):
		return transport.ErrConnClosed
	case isClosed(d.wait()):
		return transport.ErrDeadLineExceeded
	}
	return nil
}

func (c *Conn) SetReadDeadLine(t time.Time)  { c.rdeadLine.set(t) }
func (c *Conn) SetWriteDeadLine(t time.Time) { c.wdeadLine.set(t) }

type chanDeadLine struct {
	clock clock.Clock

	t *clock.Timer
	m sync.Mutex

	fired chan struct{}
}

func newChanDeadLine(clock clock.Clock) *chanDeadLine {
	return &chanDeadLine{
		clock: clock,
		fired: make(chan struct{}),
	}
}

func (d *chanDeadLine) set(t time.Time) {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}

	if isClosed(d.fired) {
		d.fired = make(chan struct{})
	}

	// Zero means no deadline.
	if t.IsZero() {
		return
	}

	until := d.clock.Until(t)
	if until <= 0 {
		close(d.fired)
		return
	}

	fired := d.fired
	d.t = d.clock.AfterFunc(until, func() {
		d.m.Lock()
		defer d.m.Unlock()
		if !isClosed(fired) {
			close(fired)
		}
	})
}

func (d *chanDeadLine) wait() <-chan struct{} {
	d.m.Lock()
	defer d.m.Unlock()
	return d.fired
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
