// Package client sends one request per connection and reads the response
// until its Content-Length or the connection closes.
package client

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic"
	"peer-chat/application/util/uri"
	iolib "peer-chat/lib/io"
	"peer-chat/transport"

	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const defaultHTTPPort = 80

type Client struct {
	dialer      transport.ConnDialer
	combineAddr transport.CombineAddrFunc

	opts Options

	logger *slog.Logger
	clock  clock.Clock
}

func New(
	d transport.ConnDialer,
	combineAddr transport.CombineAddrFunc,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		dialer:      d,
		combineAddr: combineAddr,
		opts:        opts,
		logger:      logger,
		clock:       clock,
	}
}

var (
	ErrUnsupportedScheme = errors.New("only http urls are supported")
	ErrResponseTooLarge  = errors.New("response body too large")
)

// Get requests rawURL (e.g. "http://127.0.0.1:9000/get-list").
func (c *Client) Get(ctx context.Context, rawURL string) (*semantic.Response, error) {
	return c.Do(ctx, semantic.MethodGet, rawURL, "", nil)
}

// PostJSON sends v encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, rawURL string, v any) (*semantic.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding body")
	}

	return c.Do(ctx, semantic.MethodPost, rawURL, "application/json", body)
}

func (c *Client) Do(
	ctx context.Context, method semantic.Method, rawURL, contentType string, body []byte,
) (*semantic.Response, error) {
	u, err := uri.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing url")
	}
	if u.Scheme != "http" || u.Authority == nil {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", rawURL)
	}

	port := uint16(defaultHTTPPort)
	if u.Authority.Port != nil {
		port = *u.Authority.Port
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if u.RawQuery != nil {
		target += "?" + *u.RawQuery
	}

	request, err := semantic.NewRequest(method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	request.Headers.Set("Host", u.Authority.String())
	if contentType != "" {
		request.Headers.Set("Content-Type", contentType)
	}

	return c.Send(ctx, c.combineAddr(u.Authority.Host, port), request)
}

// Send delivers request to addr over a new connection.
func (c *Client) Send(ctx context.Context, addr transport.Addr, request *semantic.Request) (*semantic.Response, error) {
	logger := c.logger.With("addr", addr.String(), "method", request.Method, "path", request.Path())

	dialCtx := ctx
	if timeout := c.opts.Timeout.DialTimeout; timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = c.clock.WithTimeout(ctx, timeout)
		defer cancel()
	}

	con, err := c.dialer.Dial(dialCtx, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}
	defer con.Close()

	stop := context.AfterFunc(ctx, func() { _ = con.Close() })
	defer stop()

	request.Headers.Set("Connection", "close")

	if timeout := c.opts.Timeout.WriteTimeout; timeout > 0 {
		con.SetWriteDeadLine(c.clock.Now().Add(timeout))
	}
	if err := http.NewRequestEncoder(con, c.opts.Encode).Encode(request.RawRequest()); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}

	if timeout := c.opts.Timeout.ReadTimeout; timeout > 0 {
		con.SetReadDeadLine(c.clock.Now().Add(timeout))
	}
	response, err := c.readResponse(con)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, "reading response")
	}

	logger.Debug("received response", "status", response.Status.Code)

	return response, nil
}

func (c *Client) readResponse(con transport.Conn) (*semantic.Response, error) {
	ur := iolib.NewUntilReader(transport.StreamReader(con))

	var raw http.Response
	if err := http.NewResponseDecoder(ur, c.opts.Decode).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}

	response, err := semantic.ResponseFrom(&raw)
	if err != nil {
		return nil, errors.Wrap(err, "interpreting response")
	}

	if response.ContentLength != nil {
		if limit := c.opts.MaxResponseBytes; limit > 0 && *response.ContentLength > limit {
			return nil, errors.Wrapf(ErrResponseTooLarge, "%d bytes", *response.ContentLength)
		}
		response.Body = make([]byte, *response.ContentLength)
		if _, err := io.ReadFull(ur, response.Body); err != nil {
			return nil, errors.Wrap(err, "reading body")
		}
		return response, nil
	}

	// Without Content-Length, the body lasts until the connection closes.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.8
	var r io.Reader = ur
	if c.opts.MaxResponseBytes > 0 {
		r = iolib.LimitReader(ur, c.opts.MaxResponseBytes)
	}
	if response.Body, err = io.ReadAll(r); err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	return response, nil
}

// DecodeJSON decodes the body of response into v.
func DecodeJSON(response *semantic.Response, v any) error {
	if err := json.Unmarshal(response.Body, v); err != nil {
		return errors.Wrap(err, "decoding json body")
	}
	return nil
}
