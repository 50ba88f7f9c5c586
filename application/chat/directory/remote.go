package directory

import (
	"context"
	"strings"

	"peer-chat/application/http/actor/client"
	"peer-chat/application/http/route"
	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"
	"peer-chat/application/util/uri"

	"github.com/pkg/errors"
)

// Remote is a [Service] served by a directory-hosting process over HTTP.
type Remote struct {
	client  *client.Client
	baseURL string
}

var _ Service = (*Remote)(nil)

// NewRemote talks to the directory at baseURL, e.g. "http://127.0.0.1:9000".
func NewRemote(c *client.Client, baseURL string) *Remote {
	return &Remote{client: c, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (r *Remote) Register(ctx context.Context, peer Peer) (Peer, error) {
	res, err := r.client.PostJSON(ctx, r.baseURL+"/add-list", RegisterRequest{
		User: peer.ID,
		Host: peer.Host,
		Port: peer.Port,
		Item: string(peer.Status),
	})
	if err != nil {
		return Peer{}, errors.Wrap(err, "registering peer")
	}

	var body RegisterResponse
	if err := decode(res, &body); err != nil {
		return Peer{}, err
	}
	return body.Peer, nil
}

func (r *Remote) List(ctx context.Context) ([]Peer, error) {
	res, err := r.client.Get(ctx, r.baseURL+"/get-list")
	if err != nil {
		return nil, errors.Wrap(err, "listing peers")
	}

	var body ListResponse
	if err := decode(res, &body); err != nil {
		return nil, err
	}
	return body.List, nil
}

func (r *Remote) Connect(ctx context.Context, from, to string) (Connection, error) {
	res, err := r.client.PostJSON(ctx, r.baseURL+"/connect-peer", ConnectRequest{FromUser: from, ToPeer: to})
	if err != nil {
		return Connection{}, errors.Wrap(err, "connecting peers")
	}

	var body ConnectResponse
	if err := decode(res, &body); err != nil {
		return Connection{}, err
	}
	return Connection{
		From:          body.FromUser,
		To:            body.ToPeer,
		ConnectedTo:   body.ConnectedTo,
		ConnectedFrom: body.ConnectedFrom,
	}, nil
}

func (r *Remote) Connections(ctx context.Context, id string) ([]Peer, error) {
	res, err := r.client.Get(ctx, r.baseURL+"/get-connections?"+uri.Values{"peer": {id}}.Encode("peer"))
	if err != nil {
		return nil, errors.Wrap(err, "listing connections")
	}

	var body ConnectionsResponse
	if err := decode(res, &body); err != nil {
		return nil, err
	}
	return body.List, nil
}

// Lookup searches the full list; the directory has no single-peer route.
func (r *Remote) Lookup(ctx context.Context, id string) (Peer, error) {
	peers, err := r.List(ctx)
	if err != nil {
		return Peer{}, err
	}

	for _, p := range peers {
		if p.ID == id {
			return p, nil
		}
	}
	return Peer{}, errors.Wrapf(ErrNotFound, "%q", id)
}

// decode maps error statuses back to the directory errors.
func decode(res *semantic.Response, v any) error {
	if res.Status.IsSuccess() {
		return client.DecodeJSON(res, v)
	}

	var payload route.ErrorPayload
	if err := client.DecodeJSON(res, &payload); err != nil || payload.Error == "" {
		payload.Error = string(res.Body)
	}

	switch res.Status.Code {
	case status.BadRequest.Code:
		return errors.Wrap(ErrValidation, payload.Error)
	case status.NotFound.Code:
		return errors.Wrap(ErrNotFound, payload.Error)
	}
	return errors.Errorf("directory responded %d %s: %s", res.Status.Code, res.Status.ReasonPhrase, payload.Error)
}
