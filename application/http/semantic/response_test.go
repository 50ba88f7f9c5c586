package semantic

import (
	"io"
	"testing"
	"time"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFrom(t *testing.T) {
	raw := &http.Response{
		StatusLine: http.StatusLine{Version: http.Version11, StatusCode: 404},
		Headers: []http.Field{
			{Name: []byte("Date"), Value: []byte("Sun, 06 Nov 1994 08:49:37 GMT")},
			{Name: []byte("Content-Length"), Value: []byte("2")},
		},
	}

	res, err := ResponseFrom(raw)
	require.NoError(t, err)

	assert.Equal(t, status.NotFound, res.Status)
	assert.Equal(t, uint(2), res.BodyLength())
	assert.True(t, time.Date(1994, 11, 6, 8, 49, 37, 0, time.UTC).Equal(res.Date))
}

func TestResponseRawResponse(t *testing.T) {
	res := NewResponse(status.OK, "text/html", []byte("<h1>hi</h1>"))
	res.Date = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	res.Headers.Set("Connection", "close")

	raw := res.RawResponse()
	assert.Equal(t, http.StatusLine{Version: http.Version11, StatusCode: 200, ReasonPhrase: "OK"}, raw.StatusLine)
	assert.Equal(t, []http.Field{
		{Name: []byte("Connection"), Value: []byte("close")},
		{Name: []byte("Content-Length"), Value: []byte("11")},
		{Name: []byte("Content-Type"), Value: []byte("text/html")},
		{Name: []byte("Date"), Value: []byte("Tue, 02 Jan 2024 03:04:05 GMT")},
	}, raw.Headers)

	body, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(body))
}

func TestNewResponseWithoutContentType(t *testing.T) {
	res := NewResponse(status.NoContent, "", nil)
	_, ok := res.Headers.Get("Content-Type")
	assert.False(t, ok)
}
