package node

import (
	"time"

	"peer-chat/application/chat/directory"
)

type Options struct {
	// ID is the peer id this node registers as.
	ID string
	// Host and Port are advertised to the directory.
	Host   string
	Port   uint16
	Status directory.Status

	PollInterval  time.Duration
	RetryInterval time.Duration

	// ReadTimeout bounds reading one inbound message.
	ReadTimeout     time.Duration
	MaxMessageBytes uint
}

func DefaultOptions() Options {
	return Options{
		Host:            "127.0.0.1",
		Port:            9001,
		Status:          directory.StatusActive,
		PollInterval:    5 * time.Second,
		RetryInterval:   5 * time.Second,
		ReadTimeout:     5 * time.Second,
		MaxMessageBytes: 64 << 10,
	}
}
