package client

import (
	"time"

	"peer-chat/application/http"
)

type Options struct {
	Encode http.EncodeOptions
	Decode http.DecodeOptions

	Timeout TimeoutOptions

	// MaxResponseBytes bounds the response body.
	MaxResponseBytes uint
}

type TimeoutOptions struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// ReadTimeout bounds the whole response.
	ReadTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Encode: http.DefaultEncodeOptions,
		Decode: http.DecodeOptions{
			MaxFieldLineLength:  8 << 10,
			MaxStatusLineLength: 8 << 10,
		},
		Timeout: TimeoutOptions{
			DialTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			ReadTimeout:  3 * time.Second,
		},
		MaxResponseBytes: 8 << 20,
	}
}
