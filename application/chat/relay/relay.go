// Package relay delivers chat messages between peers.
//
// A [Messenger] first asks the directory-hosting process to relay a message
// and falls back to a direct connection to the peer's last known address.
package relay

import (
	"context"
	"fmt"
	"strings"

	"peer-chat/application/chat/directory"
	"peer-chat/application/http/actor/client"

	"github.com/pkg/errors"
)

var (
	ErrInvalidMessage   = errors.New("sender, receiver and message are required")
	ErrRelayUnavailable = errors.New("relay unavailable")
	ErrPeerUnreachable  = errors.New("peer unreachable")
	ErrDeliveryFailed   = errors.New("delivery failed")
)

type Message struct {
	From    string
	To      string
	Content string
}

// Payload is what goes over the wire to the receiving peer.
func (m Message) Payload() []byte {
	return []byte(fmt.Sprintf("[Private] %s: %s", m.From, m.Content))
}

// Relay delivers a message on behalf of the sender and reports the address
// it was written to.
type Relay interface {
	Relay(ctx context.Context, msg Message) (target string, err error)
}

// LocalRelay delivers in the directory-hosting process itself.
type LocalRelay struct {
	dir    directory.Service
	sender Sender
}

func NewLocalRelay(dir directory.Service, sender Sender) *LocalRelay {
	return &LocalRelay{dir: dir, sender: sender}
}

func (r *LocalRelay) Relay(ctx context.Context, msg Message) (string, error) {
	peer, err := r.dir.Lookup(ctx, msg.To)
	if err != nil {
		return "", err
	}

	if err := r.sender.Send(ctx, peer.Host, peer.Port, msg.Payload()); err != nil {
		return "", errors.Wrapf(ErrPeerUnreachable, "%s at %s: %v", peer.ID, peer.Addr(), err)
	}
	return peer.Addr(), nil
}

// RelayRequest is the body of POST /relay-message.
type RelayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type RelayResponse struct {
	Status string `json:"status"`
	Target string `json:"target"`
}

// HTTPRelay asks a remote directory-hosting process to relay.
type HTTPRelay struct {
	client  *client.Client
	baseURL string
}

func NewHTTPRelay(c *client.Client, baseURL string) *HTTPRelay {
	return &HTTPRelay{client: c, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *HTTPRelay) Relay(ctx context.Context, msg Message) (string, error) {
	res, err := r.client.PostJSON(ctx, r.baseURL+"/relay-message", RelayRequest{
		From:    msg.From,
		To:      msg.To,
		Message: msg.Content,
	})
	if err != nil {
		return "", errors.Wrap(ErrRelayUnavailable, err.Error())
	}
	if !res.Status.IsSuccess() {
		return "", errors.Wrapf(ErrRelayUnavailable, "relay responded %d: %s", res.Status.Code, res.Body)
	}

	var body RelayResponse
	if err := client.DecodeJSON(res, &body); err != nil {
		return "", errors.Wrap(ErrRelayUnavailable, err.Error())
	}
	return body.Target, nil
}
