package server

import (
	"io"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic"
	iolib "peer-chat/lib/io"
	"peer-chat/transport"

	"github.com/pkg/errors"
)

func readResponse(con transport.Conn) (*semantic.Response, error) {
	ur := iolib.NewUntilReader(con)
	dec := http.NewResponseDecoder(ur, http.DefaultDecodeOptions)

	var raw http.Response
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	res, err := semantic.ResponseFrom(&raw)
	if err != nil {
		return nil, errors.Wrap(err, "interpreting response")
	}

	res.Body = make([]byte, res.BodyLength())
	if _, err := io.ReadFull(ur, res.Body); err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	return res, nil
}

// writeAsync writes chunks in order without blocking the caller.
// Errors are ignored since the server may close before reading everything.
func writeAsync(con transport.Conn, chunks ...string) {
	go func() {
		for _, chunk := range chunks {
			if _, err := con.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}()
}
