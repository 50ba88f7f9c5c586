package server

import (
	"context"
	"log/slog"
	"testing"

	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"
	"peer-chat/transport/pipe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type HandleContextTestSuite struct {
	suite.Suite

	ctx     context.Context
	request *semantic.Request

	hctx *HandleContext
}

func TestHandleContextTestSuite(t *testing.T) {
	suite.Run(t, new(HandleContextTestSuite))
}

func (s *HandleContextTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.request = &semantic.Request{Message: semantic.Message{Body: []byte("Foo is Bar")}}

	s.hctx = &HandleContext{
		ctx:        s.ctx,
		remoteAddr: pipe.Addr{Name: "client"},
		logger:     slog.New(slog.DiscardHandler),
		request:    s.request,
	}
}

func (s *HandleContextTestSuite) TestDoHandle() {
	expected := semantic.NewResponse(status.OK, "", nil)
	handle := func(c *HandleContext, request *semantic.Request) *semantic.Response {
		s.Equal(s.request, request)
		s.Equal("client", c.RemoteAddr().String())
		s.Equal(s.ctx, c.Context())
		return expected
	}

	s.Equal(expected, s.hctx.doHandle(handle))
}

func (s *HandleContextTestSuite) TestDoHandleNilResponse() {
	res := s.hctx.doHandle(func(c *HandleContext, request *semantic.Request) *semantic.Response {
		return nil
	})

	s.Equal(status.InternalServerError, res.Status)
}

func (s *HandleContextTestSuite) TestDoHandlePanic() {
	res := s.hctx.doHandle(func(c *HandleContext, request *semantic.Request) *semantic.Response {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	s.Equal(status.InternalServerError, res.Status)
	s.Contains(string(res.Body), "Handler Error: handler panicked")
}

func (s *HandleContextTestSuite) TestError() {
	testcases := []struct {
		desc     string
		err      error
		expected status.Status
		body     string
	}{
		{
			desc:     "status error keeps status",
			err:      errors.Wrap(status.NewError(errors.New("no such peer"), status.NotFound), "looking up"),
			expected: status.NotFound,
			body:     "no such peer",
		},
		{
			desc:     "anything else is a handler fault",
			err:      errors.New("disk full"),
			expected: status.InternalServerError,
			body:     "<h1>500 Internal Server Error</h1><p>Handler Error: disk full</p>",
		},
		{
			desc:     "message is escaped",
			err:      errors.New("<script>"),
			expected: status.InternalServerError,
			body:     "<h1>500 Internal Server Error</h1><p>Handler Error: &lt;script&gt;</p>",
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			res := s.hctx.Error(tc.err)
			s.Equal(tc.expected, res.Status)
			s.Equal(tc.body, string(res.Body))
		})
	}
}
