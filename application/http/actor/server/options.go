package server

import (
	"time"

	"peer-chat/application/http"
	"peer-chat/application/http/semantic"
)

type Options struct {
	Serve ServeOptions

	// MaxConns bounds the number of connections served at once.
	// Accepting pauses while the ceiling is reached. Zero means no bound.
	MaxConns int64
}

type ServeOptions struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	Parse semantic.ParseRequestOptions

	Timeout TimeoutOptions

	// MaxHeaderBytes bounds the request line and header section.
	MaxHeaderBytes uint
	// MaxContentLen bounds the declared Content-Length. Zero means no bound.
	MaxContentLen uint
}

type TimeoutOptions struct {
	// ReadTimeout bounds a single read from the connection.
	ReadTimeout time.Duration
	// HeaderTimeout bounds the time until the header section is complete.
	HeaderTimeout time.Duration
	// BodyTimeout bounds the time to receive the body after the header section.
	BodyTimeout time.Duration

	WriteTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Serve: ServeOptions{
			Encode: http.DefaultEncodeOptions,
			Decode: http.DecodeOptions{
				MaxFieldLineLength:   8 << 10,
				MaxRequestLineLength: 8 << 10,
			},
			Parse: semantic.ParseRequestOptions{MaxURILen: 8 << 10},
			Timeout: TimeoutOptions{
				ReadTimeout:   500 * time.Millisecond,
				HeaderTimeout: 2 * time.Second,
				BodyTimeout:   2 * time.Second,
				WriteTimeout:  2 * time.Second,
			},
			MaxHeaderBytes: 64 << 10,
			MaxContentLen:  8 << 20,
		},
		MaxConns: 256,
	}
}
