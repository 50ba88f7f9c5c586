package relay

import (
	"context"
	"time"

	iolib "peer-chat/lib/io"
	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Sender writes raw bytes to a peer's inbound listener.
type Sender interface {
	Send(ctx context.Context, host string, port uint16, payload []byte) error
}

// DirectSender opens one connection per message.
type DirectSender struct {
	dialer      transport.ConnDialer
	combineAddr transport.CombineAddrFunc

	clock   clock.Clock
	timeout time.Duration
}

func NewDirectSender(
	d transport.ConnDialer,
	combineAddr transport.CombineAddrFunc,
	clock clock.Clock,
	timeout time.Duration,
) *DirectSender {
	return &DirectSender{
		dialer:      d,
		combineAddr: combineAddr,
		clock:       clock,
		timeout:     timeout,
	}
}

func (s *DirectSender) Send(ctx context.Context, host string, port uint16, payload []byte) error {
	addr := s.combineAddr(host, port)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = s.clock.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	con, err := s.dialer.Dial(ctx, addr)
	if err != nil {
		return errors.Wrapf(err, "dialing %s", addr)
	}
	defer con.Close()

	if s.timeout > 0 {
		con.SetWriteDeadLine(s.clock.Now().Add(s.timeout))
	}
	if _, err := iolib.WriteFull(con, payload); err != nil {
		return errors.Wrapf(err, "writing to %s", addr)
	}

	return nil
}
