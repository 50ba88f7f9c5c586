package pipe

import (
	"context"
	"io"
	"testing"
	"time"

	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
)

type TransportTestSuite struct {
	suite.Suite

	transport *Transport
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}

func (s *TransportTestSuite) SetupTest() {
	s.transport = NewTransport(clock.New())
}

func (s *TransportTestSuite) TestListen() {
	l, err := s.transport.Listen("hey")
	s.Require().NoError(err)
	s.Equal(Addr{Name: "hey"}, l.Addr())

	_, err = s.transport.Listen("hey")
	s.ErrorIs(err, transport.ErrAddrAlreadyInUse)
}

func (s *TransportTestSuite) TestDial() {
	l, err := s.transport.Listen("hey")
	s.Require().NoError(err)
	defer l.Close()

	accepted := make(chan transport.Conn, 1)
	go func() {
		c, err := l.Accept(context.Background())
		s.NoError(err)
		accepted <- c
	}()

	conn, err := s.transport.Dial(context.Background(), Addr{Name: "hey"})
	s.Require().NoError(err)
	s.Equal("hey", conn.RemoteAddr().String())

	remote := <-accepted
	s.Equal(conn.LocalAddr(), remote.RemoteAddr())
	s.NoError(conn.Close())
}

func (s *TransportTestSuite) TestDialUnknown() {
	_, err := s.transport.Dial(context.Background(), Addr{Name: "nobody"})
	s.ErrorIs(err, transport.ErrConnRefused)
}

func (s *TransportTestSuite) TestDialCancels() {
	l, err := s.transport.Listen("hey")
	s.Require().NoError(err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.transport.Dial(ctx, Addr{Name: "hey"})
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *TransportTestSuite) TestAcceptCancels() {
	l, err := s.transport.Listen("hey")
	s.Require().NoError(err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	conn, err := l.Accept(ctx)
	s.Nil(conn)
	s.ErrorIs(err, context.Canceled)
}

func (s *TransportTestSuite) TestClose() {
	l, err := s.transport.Listen("hey")
	s.Require().NoError(err)

	s.Require().NoError(l.Close())
	s.ErrorIs(l.Close(), transport.ErrConnListenerClosed)

	_, err = l.Accept(context.Background())
	s.ErrorIs(err, transport.ErrConnListenerClosed)

	// The name is free again.
	l, err = s.transport.Listen("hey")
	s.Require().NoError(err)
	s.NoError(l.Close())
}

func (s *TransportTestSuite) TestStreamReader() {
	c1, c2 := NewPair("a", "b", clock.New())

	go func() {
		_, _ = c1.Write([]byte("hello "))
		_, _ = c1.Write([]byte("peer"))
		_ = c1.Close()
	}()

	data, err := io.ReadAll(transport.StreamReader(c2))
	s.NoError(err)
	s.Equal("hello peer", string(data))
}
