// Package transport abstracts stream connections so that the HTTP engine and
// the peer protocol run unchanged over real sockets and in-memory pipes.
package transport

type Protocol string

const (
	TCP  Protocol = "tcp"
	Pipe Protocol = "pipe"
)

// Addr is satisfied by [net.Addr].
type Addr interface {
	Network() string
	String() string
}
