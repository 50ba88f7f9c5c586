package route

import (
	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Markup is returned as-is with an HTML content type.
type Markup string

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Render turns a handler result into a response.
//
//   - *semantic.Response is passed through.
//   - Markup, string and []byte become text/html.
//   - nil becomes an empty text/html body.
//   - Anything else is encoded as JSON.
func Render(result any) (*semantic.Response, error) {
	switch v := result.(type) {
	case *semantic.Response:
		return v, nil
	case Markup:
		return semantic.NewResponse(status.OK, contentTypeHTML, []byte(v)), nil
	case string:
		return semantic.NewResponse(status.OK, contentTypeHTML, []byte(v)), nil
	case []byte:
		return semantic.NewResponse(status.OK, contentTypeHTML, v), nil
	case nil:
		return semantic.NewResponse(status.OK, contentTypeHTML, nil), nil
	}

	return JSON(status.OK, result)
}

// JSON encodes v with the given status.
func JSON(st status.Status, v any) (*semantic.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding json payload")
	}

	return semantic.NewResponse(st, contentTypeJSON, body), nil
}

// HTML renders markup with the given status.
func HTML(st status.Status, markup Markup) *semantic.Response {
	return semantic.NewResponse(st, contentTypeHTML, []byte(markup))
}

// ErrorPayload is the JSON body of a failed JSON route.
type ErrorPayload struct {
	Error string `json:"error"`
}

// JSONError answers with {"error": message}.
func JSONError(st status.Status, message string) *semantic.Response {
	res, err := JSON(st, ErrorPayload{Error: message})
	if err != nil {
		// A struct of one string always encodes.
		panic(err)
	}
	return res
}

// ErrMalformedBody reports a request body that is not the expected JSON.
var ErrMalformedBody = errors.New("malformed json body")

// DecodeJSON decodes the request body into v.
func DecodeJSON(request *semantic.Request, v any) error {
	if len(request.Body) == 0 {
		return errors.Wrap(ErrMalformedBody, "empty body")
	}
	if err := json.Unmarshal(request.Body, v); err != nil {
		return errors.Wrap(ErrMalformedBody, err.Error())
	}
	return nil
}
