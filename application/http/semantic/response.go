package semantic

import (
	"bytes"
	"io"
	"time"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic/status"
)

type Response struct {
	Message

	Status status.Status
	Date   time.Time
}

// NewResponse creates a HTTP/1.1 response.
// contentType is omitted when empty.
func NewResponse(st status.Status, contentType string, body []byte) *Response {
	r := &Response{
		Message: Message{
			Version: http.Version11,
			Headers: NewHeaders(nil),
			Body:    body,
		},
		Status: st,
	}
	if contentType != "" {
		r.Headers.Set("Content-Type", contentType)
	}

	return r
}

// ResponseFrom interprets a decoded response head.
// The body is not read; the caller fills Body.
func ResponseFrom(raw *http.Response) (*Response, error) {
	st, _ := status.FromCode(raw.StatusCode)
	if raw.ReasonPhrase != "" {
		st.ReasonPhrase = raw.ReasonPhrase
	}

	response := Response{Status: st}

	var err error
	response.Message, err = createMessage(raw.Version, raw.Headers)
	if err != nil {
		return nil, err
	}

	if v, ok := response.Headers.Get("Date"); ok {
		// An unparsable date is not worth failing the response.
		response.Date, _ = ParseDate(v)
	}

	return &response, nil
}

func (r *Response) EnsureHeadersSet() {
	r.Message.EnsureHeadersSet()

	if !r.Date.IsZero() {
		r.Headers.Set("Date", FormatDate(r.Date))
	}
}

func (r *Response) RawResponse() http.Response {
	r.EnsureHeadersSet()

	return http.Response{
		StatusLine: http.StatusLine{
			Version:      r.Version,
			StatusCode:   r.Status.Code,
			ReasonPhrase: r.Status.ReasonPhrase,
		},
		Headers: r.Headers.ToRawFields(),
		Body:    io.NopCloser(bytes.NewReader(r.Body)),
	}
}
