package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"
	"peer-chat/application/util/rule"
	iolib "peer-chat/lib/io"
	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type connState int

const (
	stateAwaitingHeaders connState = iota
	stateAwaitingBody
	stateDispatching
	stateResponded
	stateTimeout
	stateAbandoned
)

func (s connState) String() string {
	switch s {
	case stateAwaitingHeaders:
		return "awaiting_headers"
	case stateAwaitingBody:
		return "awaiting_body"
	case stateDispatching:
		return "dispatching"
	case stateResponded:
		return "responded"
	case stateTimeout:
		return "timeout"
	case stateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// conn serves exactly one request and closes.
type conn struct {
	con   transport.Conn
	state connState

	handle HandleFunc
	clock  clock.Clock

	logger *slog.Logger

	opts ServeOptions
}

func (c *conn) start(ctx context.Context) {
	// Abandon the connection when the server shuts down.
	stop := context.AfterFunc(ctx, func() { _ = c.con.Close() })
	defer stop()

	defer func() {
		c.logger.Debug("closing connection", "state", c.state)
		if err := c.con.Close(); err != nil {
			c.logger.Error("error when closing connection", "error", err)
		}
	}()

	if err := c.serve(ctx); err != nil {
		switch {
		case errors.Is(err, transport.ErrConnClosed):
			c.logger.Debug("connection closed by peer", "state", c.state)
		case errors.Is(err, transport.ErrDeadLineExceeded):
			c.logger.Info("request timed out", "state", c.state)
		default:
			c.logger.Error("serving connection", "state", c.state, "error", err)
		}
	}
}

func (c *conn) serve(ctx context.Context) error {
	timeout := c.opts.Timeout
	r := &deadlineReader{
		con:         c.con,
		clock:       c.clock,
		readTimeout: timeout.ReadTimeout,
	}
	r.extend(timeout.HeaderTimeout)
	ur := iolib.NewUntilReader(r)

	c.state = stateAwaitingHeaders
	head, err := ur.ReadUntilLimit(rule.HeaderTerminator, c.opts.MaxHeaderBytes)
	if err != nil {
		return c.failHead(head, err)
	}

	request, err := c.parseHead(head)
	if err != nil {
		c.logger.Debug("malformed request", "error", err)
		return c.respond(statusErrToResponse(toStatusError(err), false))
	}

	logger := c.logger.With("method", request.Method, "path", request.Path())

	if limit := c.opts.MaxContentLen; limit > 0 && request.BodyLength() > limit {
		return c.respond(statusErrToResponse(
			status.NewError(errors.Errorf("content length %d exceeds %d", request.BodyLength(), limit), status.ContentTooLarge),
			false,
		))
	}

	c.state = stateAwaitingBody
	r.extend(timeout.BodyTimeout)

	request.Body = make([]byte, request.BodyLength())
	if _, err := io.ReadFull(ur, request.Body); err != nil {
		if errors.Is(err, transport.ErrDeadLineExceeded) {
			c.state = stateTimeout
			_ = c.respond(statusErrToResponse(status.NewError(nil, status.RequestTimeout), true))
			return errors.Wrap(err, "reading body")
		}
		c.state = stateAbandoned
		return errors.Wrap(err, "reading body")
	}

	c.state = stateDispatching
	hctx := &HandleContext{
		ctx:        ctx,
		remoteAddr: c.con.RemoteAddr(),
		logger:     logger,
		request:    request,
	}
	response := hctx.doHandle(c.handle)

	if err := c.respond(response); err != nil {
		return err
	}
	logger.Info("served", "status", response.Status.Code)

	return nil
}

// failHead decides what an incomplete header section deserves.
func (c *conn) failHead(partial []byte, err error) error {
	switch {
	case errors.Is(err, iolib.ErrLimitExceeded):
		return c.respond(statusErrToResponse(status.NewError(nil, status.HeaderFieldsTooLarge), true))
	case errors.Is(err, transport.ErrDeadLineExceeded):
		c.state = stateTimeout
		// Only a request line worth answering gets a response.
		if _, ok := http.PeekRequestLine(partial); ok {
			_ = c.respond(statusErrToResponse(status.NewError(nil, status.RequestTimeout), true))
		}
		return errors.Wrap(err, "reading header")
	}

	c.state = stateAbandoned
	return errors.Wrap(err, "reading header")
}

func (c *conn) parseHead(head []byte) (*semantic.Request, error) {
	dec := http.NewRequestDecoder(iolib.NewUntilReader(bytes.NewReader(head)), c.opts.Decode)

	var raw http.Request
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	request, err := semantic.RequestFrom(&raw, c.opts.Parse)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a semantic request")
	}

	return request, nil
}

func (c *conn) respond(response *semantic.Response) error {
	if timeout := c.opts.Timeout.WriteTimeout; timeout > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(timeout))
	}

	response.Version = http.Version11
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.6.1-6
	response.Date = c.clock.Now()
	response.Headers.Set("Connection", "close")

	enc := http.NewResponseEncoder(c.con, c.opts.Encode)
	if err := enc.Encode(response.RawResponse()); err != nil {
		return errors.Wrap(err, "writing response")
	}

	if c.state != stateTimeout {
		c.state = stateResponded
	}

	return nil
}

// deadlineReader bounds every read by readTimeout while keeping
// an overall deadline. Expired single reads are retried until the overall deadline.
type deadlineReader struct {
	con   transport.Conn
	clock clock.Clock

	readTimeout time.Duration
	deadline    time.Time
}

// extend moves the overall deadline to d from now. Zero d means no overall deadline.
func (r *deadlineReader) extend(d time.Duration) {
	r.deadline = time.Time{}
	if d > 0 {
		r.deadline = r.clock.Now().Add(d)
	}
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	for {
		now := r.clock.Now()
		if !r.deadline.IsZero() && !now.Before(r.deadline) {
			return 0, transport.ErrDeadLineExceeded
		}

		var dl time.Time
		if r.readTimeout > 0 {
			dl = now.Add(r.readTimeout)
		}
		if !r.deadline.IsZero() && (dl.IsZero() || r.deadline.Before(dl)) {
			dl = r.deadline
		}
		r.con.SetReadDeadLine(dl)

		n, err := r.con.Read(p)
		if n == 0 && errors.Is(err, transport.ErrDeadLineExceeded) {
			continue
		}
		return n, err
	}
}

// toStatusError converts error into [status.Error].
// It assumes that error is returned when reading request,
// so if it isn't any specific error, it will return error with [status.BadRequest].
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-9
func toStatusError(err error) status.Error {
	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return status.NewError(nil, status.RequestTimeout)
	}

	if errors.Is(err, semantic.ErrURITooLong) || errors.Is(err, http.ErrRequestLineTooLong) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-4
		return status.NewError(err, status.RequestURITooLong)
	}

	if errors.Is(err, http.ErrFieldLineTooLong) {
		return status.NewError(err, status.HeaderFieldsTooLarge)
	}

	if errors.Is(err, semantic.ErrUnsupportedCoding) {
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1-11
		return status.NewError(err, status.NotImplemented)
	}

	return status.NewError(err, status.BadRequest)
}

func statusErrToResponse(se status.Error, skipBody bool) *semantic.Response {
	if skipBody || se.Cause() == nil {
		return semantic.NewResponse(se.Status, "", nil)
	}

	return semantic.NewResponse(se.Status, "text/plain; charset=utf-8", []byte(se.Cause().Error()))
}
