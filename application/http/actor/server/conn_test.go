package server

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"
	"peer-chat/transport"
	"peer-chat/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ConnTestSuite struct {
	suite.Suite

	clock  *clock.Mock
	client transport.Conn

	conn    *conn
	handled chan *semantic.Request
}

func TestConnTestSuite(t *testing.T) {
	suite.Run(t, new(ConnTestSuite))
}

func (s *ConnTestSuite) SetupTest() {
	s.clock = clock.NewMock()

	serverSide, clientSide := pipe.NewPair("server", "client", s.clock)
	s.client = clientSide

	opts := DefaultOptions().Serve
	opts.Timeout.WriteTimeout = 0
	opts.MaxContentLen = 64

	s.handled = make(chan *semantic.Request, 1)
	s.conn = &conn{
		con:    serverSide,
		clock:  s.clock,
		logger: slog.New(slog.DiscardHandler),
		opts:   opts,
		handle: func(c *HandleContext, request *semantic.Request) *semantic.Response {
			s.handled <- request
			return semantic.NewResponse(status.OK, "text/plain", request.Body)
		},
	}
}

func (s *ConnTestSuite) TearDownTest() {
	s.NoError(s.client.Close())
}

func (s *ConnTestSuite) start() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.conn.start(context.Background())
	}()
	return done
}

// advanceUntil moves the mock clock forward until done is closed.
func (s *ConnTestSuite) advanceUntil(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
			s.clock.Add(100 * time.Millisecond)
		}
	}
}

func (s *ConnTestSuite) TestServeOnce() {
	done := s.start()
	writeAsync(s.client, "GET /get-list HTTP/1.1\r\nHost: a\r\n\r\n")

	res, err := readResponse(s.client)
	s.Require().NoError(err)
	<-done

	s.Equal(status.OK, res.Status)
	v, _ := res.Headers.Get("Connection")
	s.Equal("close", v)
	v, _ = res.Headers.Get("Content-Length")
	s.Equal("0", v)
	_, ok := res.Headers.Get("Date")
	s.True(ok)
	s.Equal(stateResponded, s.conn.state)

	request := <-s.handled
	s.Equal(semantic.MethodGet, request.Method)
	s.Equal("/get-list", request.Path())

	// One request per connection.
	_, err = s.client.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrConnClosed)
}

func (s *ConnTestSuite) TestServeFragmentedBody() {
	done := s.start()
	writeAsync(s.client,
		"POST /send-peer HTTP/1.1\r\nCont",
		"ent-Length: 11\r\n",
		"\r\nhello",
		" world",
	)

	res, err := readResponse(s.client)
	s.Require().NoError(err)
	<-done

	s.Equal(status.OK, res.Status)
	s.Equal("hello world", string(res.Body))
	s.Equal("hello world", string((<-s.handled).Body))
}

func (s *ConnTestSuite) TestBodyNeverCompletes() {
	done := s.start()
	writeAsync(s.client, "POST /add-list HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc")

	resCh := make(chan *semantic.Response, 1)
	go func() {
		res, _ := readResponse(s.client)
		resCh <- res
	}()

	s.advanceUntil(done)

	res := <-resCh
	s.Require().NotNil(res)
	s.Equal(status.RequestTimeout, res.Status)
	s.Equal(stateTimeout, s.conn.state)
	s.Empty(s.handled)
}

func (s *ConnTestSuite) TestHeaderTimeoutWithoutRequestLine() {
	done := s.start()
	writeAsync(s.client, "GET /get-li")

	errCh := make(chan error, 1)
	go func() {
		_, err := readResponse(s.client)
		errCh <- err
	}()

	s.advanceUntil(done)

	s.ErrorIs(<-errCh, transport.ErrConnClosed)
	s.Equal(stateTimeout, s.conn.state)
	s.Empty(s.handled)
}

func (s *ConnTestSuite) TestHeaderTimeoutWithRequestLine() {
	done := s.start()
	writeAsync(s.client, "POST /add-list HTTP/1.1\r\nContent-Type: app")

	resCh := make(chan *semantic.Response, 1)
	go func() {
		res, _ := readResponse(s.client)
		resCh <- res
	}()

	s.advanceUntil(done)

	res := <-resCh
	s.Require().NotNil(res)
	s.Equal(status.RequestTimeout, res.Status)
}

func (s *ConnTestSuite) TestPeerClosesEarly() {
	done := s.start()

	_, err := s.client.Write([]byte("POST /add-list HTTP/1.1\r\nContent-Length: 10\r\n\r\nab"))
	s.Require().NoError(err)
	s.Require().NoError(s.client.Close())

	<-done
	s.Equal(stateAbandoned, s.conn.state)
	s.Empty(s.handled)
}

func (s *ConnTestSuite) TestErrorResponses() {
	testcases := []struct {
		desc     string
		request  string
		expected status.Status
	}{
		{
			desc:     "malformed request line",
			request:  "GARBAGE\r\n\r\n",
			expected: status.BadRequest,
		},
		{
			desc:     "malformed header",
			request:  "GET / HTTP/1.1\r\nNo colon here\r\n\r\n",
			expected: status.BadRequest,
		},
		{
			desc:     "invalid content length",
			request:  "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n",
			expected: status.BadRequest,
		},
		{
			desc:     "conflicting content lengths",
			request:  "POST / HTTP/1.1\r\nContent-Length: 100\r\nContent-Length: 2\r\n\r\nab",
			expected: status.BadRequest,
		},
		{
			desc:     "chunked transfer coding",
			request:  "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n",
			expected: status.NotImplemented,
		},
		{
			desc:     "content too large",
			request:  "POST / HTTP/1.1\r\nContent-Length: 65\r\n\r\n",
			expected: status.ContentTooLarge,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			s.SetupTest()
			defer s.TearDownTest()

			done := s.start()
			writeAsync(s.client, tc.request)

			res, err := readResponse(s.client)
			s.Require().NoError(err)
			<-done

			s.Equal(tc.expected, res.Status)
			s.Empty(s.handled)
		})
	}
}

func (s *ConnTestSuite) TestHandlerPanic() {
	s.conn.handle = func(c *HandleContext, request *semantic.Request) *semantic.Response {
		panic("boom")
	}

	done := s.start()
	writeAsync(s.client, "GET / HTTP/1.1\r\n\r\n")

	res, err := readResponse(s.client)
	s.Require().NoError(err)
	<-done

	s.Equal(status.InternalServerError, res.Status)
	s.Contains(string(res.Body), "Handler Error: handler panicked: boom")
}

func TestDeadlineReaderRetriesSingleReadTimeouts(t *testing.T) {
	mock := clock.NewMock()
	serverSide, clientSide := pipe.NewPair("server", "client", mock)
	defer serverSide.Close()
	defer clientSide.Close()

	r := &deadlineReader{con: serverSide, clock: mock, readTimeout: 500 * time.Millisecond}
	r.extend(2 * time.Second)

	got := make(chan string, 1)
	go func() {
		b := make([]byte, 5)
		n, _ := r.Read(b)
		got <- string(b[:n])
	}()

	// Three single-read timeouts pass before the bytes arrive.
	for range 15 {
		mock.Add(100 * time.Millisecond)
	}
	_, err := clientSide.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, "hello", <-got)
}

func TestToStatusError(t *testing.T) {
	testcases := []struct {
		err      error
		expected status.Status
	}{
		{transport.ErrDeadLineExceeded, status.RequestTimeout},
		{semantic.ErrURITooLong, status.RequestURITooLong},
		{semantic.ErrUnsupportedCoding, status.NotImplemented},
		{semantic.ErrInvalidContentLength, status.BadRequest},
	}
	for _, tc := range testcases {
		t.Run(strings.ToLower(tc.expected.ReasonPhrase), func(t *testing.T) {
			assert.Equal(t, tc.expected, toStatusError(tc.err).Status)
		})
	}
}
