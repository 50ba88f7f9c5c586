package semantic

import (
	"bytes"
	"io"
	"strings"

	"peer-chat/application/http"
	"peer-chat/application/util/uri"

	"github.com/pkg/errors"
)

type Request struct {
	Message

	Method Method
	URI    uri.URI

	Cookies map[string]string
}

type ParseRequestOptions struct {
	MaxURILen uint
}

var (
	ErrURITooLong    = errors.New("uri too long")
	ErrMalformedURI  = errors.New("malformed request target")
	ErrMissingMethod = errors.New("method is empty")
)

// RequestFrom interprets a decoded request head.
// The body is not read; the caller fills Body according to [Message.BodyLength].
func RequestFrom(raw *http.Request, opts ParseRequestOptions) (*Request, error) {
	if raw.Method == "" {
		return nil, ErrMissingMethod
	}

	request := Request{Method: Method(raw.Method)}

	var err error
	request.Message, err = createMessage(raw.Version, raw.Headers)
	if err != nil {
		return nil, err
	}

	request.URI, err = parseAndValidateURI(raw.Target, opts.MaxURILen)
	if err != nil {
		return nil, err
	}

	request.Cookies = make(map[string]string)
	if v, ok := request.Headers.Get("Cookie"); ok {
		request.Cookies = ParseCookies(v)
	}

	return &request, nil
}

// NewRequest builds an outgoing request for target in origin-form.
func NewRequest(method Method, target string, body []byte) (*Request, error) {
	u, err := uri.ParseRequestTarget(target)
	if err != nil {
		return nil, errors.Wrap(err, "parsing target")
	}

	return &Request{
		Message: Message{
			Version: http.Version11,
			Headers: NewHeaders(nil),
			Body:    body,
		},
		Method:  method,
		URI:     u,
		Cookies: map[string]string{},
	}, nil
}

func (r *Request) Path() string { return r.URI.Path }

// Query returns the parsed query. A malformed query yields empty values.
func (r *Request) Query() uri.Values {
	q, err := r.URI.Query()
	if err != nil {
		return uri.Values{}
	}
	return q
}

// Form parses an application/x-www-form-urlencoded body.
func (r *Request) Form() (uri.Values, error) {
	return uri.ParseQuery(strings.TrimSpace(string(r.Body)))
}

func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Cookies[name]
	return v, ok
}

func (r *Request) RawRequest() http.Request {
	r.EnsureHeadersSet()

	return http.Request{
		RequestLine: http.RequestLine{
			Method:  string(r.Method),
			Target:  r.URI.String(),
			Version: r.Version,
		},
		Headers: r.Headers.ToRawFields(),
		Body:    io.NopCloser(bytes.NewReader(r.Body)),
	}
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2
func parseAndValidateURI(raw string, maxLen uint) (uri.URI, error) {
	if maxLen > 0 && uint(len(raw)) > maxLen {
		return uri.URI{}, ErrURITooLong
	}

	u, err := uri.Parse(raw)
	if err != nil {
		return uri.URI{}, errors.Wrap(ErrMalformedURI, err.Error())
	}

	if u.IsAbsoluteURI() {
		// absolute-form
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.2
		if u.Scheme != "http" || u.Authority == nil {
			return uri.URI{}, errors.Wrap(ErrMalformedURI, "absolute-form needs http scheme and authority")
		}
		if u.Path == "" {
			u.Path = "/"
		}
		return u, nil
	}

	// origin-form
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
	if !strings.HasPrefix(u.Path, "/") {
		return uri.URI{}, errors.Wrap(ErrMalformedURI, "origin-form path should start with /")
	}

	return u, nil
}
