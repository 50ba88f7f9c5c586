package iolib

import (
	"bytes"
	"errors"
	"io"
)

// UntilReader accumulates bytes from the underlying reader
// until a delimiter shows up. Bytes read past the delimiter are kept
// and served by subsequent reads.
type UntilReader struct {
	r io.Reader

	buf *bytes.Buffer
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, err = ur.buf.Read(p)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	return ur.r.Read(p)
}

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntil reads until delim, which is included in the output.
// If the underlying reader fails first, the accumulated bytes are returned with the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit is [UntilReader.ReadUntil] that gives up with [ErrLimitExceeded]
// once more than limit bytes were accumulated without seeing delim.
// Zero limit means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	searched := 0
	temp := make([]byte, 1024)

	for {
		// Only the tail that may overlap with new bytes needs to be searched again.
		from := max(0, searched-len(delim)+1)
		if idx := bytes.Index(ur.buf.Bytes()[from:], delim); idx >= 0 {
			end := from + idx + len(delim)
			if limit > 0 && uint(end) > limit {
				return ur.drain(), ErrLimitExceeded
			}

			out := bytes.Clone(ur.buf.Bytes()[:end])
			ur.buf.Next(end)
			return out, nil
		}
		searched = ur.buf.Len()

		if limit > 0 && uint(searched) > limit {
			return ur.drain(), ErrLimitExceeded
		}

		n, err := ur.r.Read(temp)
		ur.buf.Write(temp[:n])

		if err != nil && n == 0 {
			return ur.drain(), err
		}
	}
}

func (ur *UntilReader) drain() []byte {
	b := bytes.Clone(ur.buf.Bytes())
	ur.buf.Reset()
	return b
}
