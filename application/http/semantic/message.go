package semantic

import (
	"strconv"
	"strings"

	"peer-chat/application/http"

	"github.com/pkg/errors"
)

type Message struct {
	Version http.Version

	Headers Headers

	ContentLength *uint

	Body []byte
}

var (
	ErrInvalidContentLength = errors.New("invalid content length")
	ErrUnsupportedCoding    = errors.New("transfer coding is not supported")
)

func createMessage(ver http.Version, fields []http.Field) (msg Message, err error) {
	msg.Version = ver
	msg.Headers = HeadersFrom(fields)

	// Only Content-Length framing is understood.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1-15
	if _, ok := msg.Headers.Get("Transfer-Encoding"); ok {
		return Message{}, ErrUnsupportedCoding
	}

	msg.ContentLength, err = extractContentLength(fields)
	if err != nil {
		return Message{}, err
	}

	return msg, nil
}

// BodyLength returns the number of body bytes the message declares.
func (m *Message) BodyLength() uint {
	if m.ContentLength == nil {
		return 0
	}
	return *m.ContentLength
}

// EnsureHeadersSet makes Content-Length agree with Body.
func (m *Message) EnsureHeadersSet() {
	l := uint(len(m.Body))
	m.ContentLength = &l
	m.Headers.Set("Content-Length", strconv.FormatUint(uint64(l), 10))
}

// extractContentLength extracts content length from the raw fields.
// Folded headers keep only the last line, so repeated declarations are read here.
// Every declared value must be the same.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.5
func extractContentLength(fields []http.Field) (*uint, error) {
	var (
		l     uint
		found bool
	)
	for _, field := range fields {
		if canonical(string(field.Name)) != "Content-Length" {
			continue
		}

		for _, v := range strings.Split(string(field.Value), ",") {
			v = strings.TrimSpace(v)

			// Any value greater than or equal to 0 is valid.
			// But let's restrict it to 64bit uint.
			// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-10
			len64, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidContentLength, "%q", v)
			}

			if found && uint(len64) != l {
				return nil, errors.Wrapf(ErrInvalidContentLength, "conflicting values %d and %d", l, len64)
			}
			l, found = uint(len64), true
		}
	}

	if !found {
		return nil, nil
	}
	return &l, nil
}
