package server

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"
	"peer-chat/transport"

	"github.com/pkg/errors"
)

// HandleFunc answers a fully received request.
// Failures are reported with [HandleContext.Error].
type HandleFunc func(c *HandleContext, request *semantic.Request) *semantic.Response

type HandleContext struct {
	ctx context.Context

	remoteAddr transport.Addr
	logger     *slog.Logger

	request *semantic.Request
}

// doHandle never lets a handler fault escape. Panics become 500 responses.
func (c *HandleContext) doHandle(handle HandleFunc) (res *semantic.Response) {
	defer func() {
		if e := recover(); e != nil {
			c.logger.Error("handler panicked", "panic", e)
			res = c.Error(errors.Errorf("handler panicked: %v", e))
		}
	}()

	res = handle(c, c.request)
	if res == nil {
		return c.Error(errors.New("handler returned no response"))
	}

	return res
}

func (c *HandleContext) Context() context.Context   { return c.ctx }
func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }
func (c *HandleContext) Logger() *slog.Logger       { return c.logger }

// Error turns err into a response.
// A [status.Error] keeps its status. Anything else is a handler fault.
func (c *HandleContext) Error(err error) *semantic.Response {
	if err == nil {
		err = errors.New("nil error")
	}

	if statusErr := new(status.Error); errors.As(err, statusErr) {
		return statusErrToResponse(*statusErr, false)
	}

	c.logger.Error("handler failed", "error", err)

	return HTMLError(status.InternalServerError, "Handler Error: "+err.Error())
}

// HTMLError renders a minimal error page.
func HTMLError(st status.Status, message string) *semantic.Response {
	body := fmt.Sprintf("<h1>%d %s</h1>", st.Code, st.ReasonPhrase)
	if message != "" {
		body += "<p>" + html.EscapeString(message) + "</p>"
	}

	return semantic.NewResponse(st, "text/html; charset=utf-8", []byte(body))
}
