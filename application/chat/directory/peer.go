// Package directory keeps the authoritative record of peers and of which
// peers are connected to each other.
package directory

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrValidation = errors.New("invalid peer")
	ErrNotFound   = errors.New("peer not found")
)

type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusActive  Status = "ACTIVE"
	StatusOffline Status = "OFFLINE"
)

// ParseStatus folds case. An empty status means [StatusOnline].
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case "":
		return StatusOnline, nil
	case StatusOnline, StatusActive, StatusOffline:
		return st, nil
	}
	return "", errors.Wrapf(ErrValidation, "unknown status %q", s)
}

// Peer is a peer entry. In a connection list it describes the neighbour.
type Peer struct {
	ID     string `json:"peer"`
	Host   string `json:"ip"`
	Port   uint16 `json:"port"`
	Status Status `json:"status,omitempty"`
}

func (p Peer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port)))
}

func (p Peer) validate() error {
	if p.ID == "" {
		return errors.Wrap(ErrValidation, "peer id is empty")
	}
	// The id names the peer's message log file.
	if p.ID == "." || p.ID == ".." || strings.ContainsAny(p.ID, `/\`+"\x00") {
		return errors.Wrapf(ErrValidation, "peer id %q is not a valid file name", p.ID)
	}
	if p.Host == "" {
		return errors.Wrapf(ErrValidation, "peer %q has no host", p.ID)
	}
	if p.Port == 0 {
		return errors.Wrapf(ErrValidation, "peer %q has no port", p.ID)
	}
	return nil
}

// descriptor is p as it appears in a neighbour's connection list.
func (p Peer) descriptor() Peer {
	return Peer{ID: p.ID, Host: p.Host, Port: p.Port}
}

// Connection is the outcome of connecting From to To.
// ConnectedTo is the descriptor inserted on the From side,
// ConnectedFrom the one inserted on the To side.
type Connection struct {
	From          string
	To            string
	ConnectedTo   Peer
	ConnectedFrom Peer
}

// Service is implemented by the local [Directory] and by [Remote].
type Service interface {
	Register(ctx context.Context, peer Peer) (Peer, error)
	List(ctx context.Context) ([]Peer, error)
	Connect(ctx context.Context, from, to string) (Connection, error)
	Connections(ctx context.Context, id string) ([]Peer, error)
	Lookup(ctx context.Context, id string) (Peer, error)
}
