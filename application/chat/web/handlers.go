package web

import (
	"context"

	"peer-chat/application/chat/auth"
	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/relay"
	"peer-chat/application/http/actor/server"
	"peer-chat/application/http/route"
	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"

	"github.com/pkg/errors"
)

func (a *App) page(name string) route.Handler {
	return func(ctx context.Context, request *semantic.Request) (any, error) {
		data, err := a.cfg.Pages.Page(name)
		if err != nil {
			return nil, err
		}
		return route.Markup(data), nil
	}
}

// signedIn answers with the home page and a fresh session cookie.
func (a *App) signedIn(user string) (*semantic.Response, error) {
	data, err := a.cfg.Pages.Page(PageIndex)
	if err != nil {
		return nil, err
	}

	cookie, err := a.cfg.Sessions.Create(user).Text()
	if err != nil {
		return nil, errors.Wrap(err, "rendering session cookie")
	}

	res := route.HTML(status.OK, route.Markup(data))
	res.Headers.Add("Set-Cookie", cookie)
	return res, nil
}

func (a *App) login(ctx context.Context, request *semantic.Request) (any, error) {
	form, err := request.Form()
	if err != nil {
		return server.HTMLError(status.BadRequest, "Malformed form."), nil
	}

	username := form.Get("username")
	if !a.cfg.Credentials.Verify(username, form.Get("password")) {
		return server.HTMLError(status.Unauthorized, "Invalid credentials."), nil
	}

	a.cfg.Logger.Info("user logged in", "user", username)
	return a.signedIn(username)
}

func (a *App) submitInfo(ctx context.Context, request *semantic.Request) (any, error) {
	form, err := request.Form()
	if err != nil {
		return server.HTMLError(status.BadRequest, "Malformed form."), nil
	}

	username, password := form.Get("username"), form.Get("password")
	switch err := a.cfg.Credentials.Add(username, password); {
	case errors.Is(err, auth.ErrMissingCredentials):
		return server.HTMLError(status.BadRequest, "Username and password are required."), nil
	case errors.Is(err, auth.ErrUserExists):
		return server.HTMLError(status.Conflict, "User already exists."), nil
	case err != nil:
		return nil, err
	}

	a.cfg.Logger.Info("user registered", "user", username)
	return a.signedIn(username)
}

func (a *App) addList(ctx context.Context, request *semantic.Request) (any, error) {
	var body directory.RegisterRequest
	if err := route.DecodeJSON(request, &body); err != nil {
		return nil, err
	}

	peer, err := body.Peer()
	if err != nil {
		return nil, err
	}

	stored, err := a.cfg.Directory.Register(ctx, peer)
	if err != nil {
		return nil, err
	}
	return directory.NewRegisterResponse(stored), nil
}

func (a *App) getList(ctx context.Context, request *semantic.Request) (any, error) {
	peers, err := a.cfg.Directory.List(ctx)
	if err != nil {
		return nil, err
	}
	if peers == nil {
		peers = []directory.Peer{}
	}
	return directory.ListResponse{Count: len(peers), List: peers}, nil
}

func (a *App) connectPeer(ctx context.Context, request *semantic.Request) (any, error) {
	var body directory.ConnectRequest
	if err := route.DecodeJSON(request, &body); err != nil {
		return nil, err
	}

	conn, err := a.cfg.Directory.Connect(ctx, body.FromUser, body.ToPeer)
	if err != nil {
		return nil, err
	}
	return directory.NewConnectResponse(conn), nil
}

func (a *App) getConnections(ctx context.Context, request *semantic.Request) (any, error) {
	id := request.Query().Get("peer")
	if id == "" {
		return nil, errors.Wrap(directory.ErrValidation, "query parameter peer is required")
	}

	peers, err := a.cfg.Directory.Connections(ctx, id)
	if err != nil {
		return nil, err
	}
	if peers == nil {
		peers = []directory.Peer{}
	}
	return directory.ConnectionsResponse{Peer: id, Count: len(peers), List: peers}, nil
}

func (a *App) sendPeer(ctx context.Context, request *semantic.Request) (any, error) {
	var body SendRequest
	if err := route.DecodeJSON(request, &body); err != nil {
		return nil, err
	}

	res, err := a.cfg.Messenger.Send(ctx, body.Sender(), body.To, body.Message)
	if err != nil {
		return nil, err
	}
	return SendResponse{Status: string(res.Via), To: res.To, Target: res.Target}, nil
}

func (a *App) broadcastPeer(ctx context.Context, request *semantic.Request) (any, error) {
	var body BroadcastRequest
	if err := route.DecodeJSON(request, &body); err != nil {
		return nil, err
	}

	res, err := a.cfg.Messenger.Broadcast(ctx, body.Sender(), body.Message)
	if err != nil {
		return nil, err
	}
	return BroadcastResponse{Status: "ok", SentTo: res.SentTo, Failed: res.Failed}, nil
}

func (a *App) getLogMessages(ctx context.Context, request *semantic.Request) (any, error) {
	id := request.Query().Get("peer")

	entries, err := a.cfg.Logs.Read(id)
	if err != nil {
		return nil, err
	}
	return LogsResponse{Peer: id, Logs: entries}, nil
}

func (a *App) relayMessage(ctx context.Context, request *semantic.Request) (any, error) {
	var body relay.RelayRequest
	if err := route.DecodeJSON(request, &body); err != nil {
		return nil, err
	}
	if body.From == "" || body.To == "" || body.Message == "" {
		return nil, relay.ErrInvalidMessage
	}

	target, err := a.cfg.Relay.Relay(ctx, relay.Message{From: body.From, To: body.To, Content: body.Message})
	if err != nil {
		return nil, err
	}
	return relay.RelayResponse{Status: "relayed", Target: target}, nil
}
