// Package web serves the chat UI and the peer directory API over the HTTP
// engine. Requests are dispatched to the page routes first, then to the
// built-in routes, and answered 404 otherwise.
package web

import (
	"log/slog"

	"peer-chat/application/chat/auth"
	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/msglog"
	"peer-chat/application/chat/relay"
	"peer-chat/application/http/actor/server"
	"peer-chat/application/http/route"
	"peer-chat/application/http/semantic"
	"peer-chat/application/http/semantic/status"

	"github.com/pkg/errors"
)

type Config struct {
	Directory   directory.Service
	Messenger   *relay.Messenger
	Logs        *msglog.Store
	Credentials *auth.Credentials
	Sessions    *auth.Sessions
	Pages       Pages

	// Relay serves POST /relay-message when set.
	// Only the directory-hosting process sets it.
	Relay relay.Relay

	Logger *slog.Logger
}

type App struct {
	cfg Config

	pages   *route.Registry
	builtin *route.Registry
}

const loginRequired = `<h1>401 Unauthorized</h1><p>Login required. <a href="/login">Login</a></p>`

// protected paths need a valid session.
var protected = map[string]bool{
	"/":           true,
	"/index":      true,
	"/index.html": true,
}

func New(cfg Config) *App {
	a := &App{
		cfg:     cfg,
		pages:   route.NewRegistry(),
		builtin: route.NewRegistry(),
	}

	a.pages.Register(semantic.MethodGet, "/", a.page(PageIndex))
	a.pages.Register(semantic.MethodGet, "/index", a.page(PageIndex))
	a.pages.Register(semantic.MethodGet, "/index.html", a.page(PageIndex))
	a.pages.Register(semantic.MethodGet, "/submit-info", a.page(PageSubmitInfo))
	a.pages.Seal()

	a.builtin.Register(semantic.MethodGet, "/login", a.page(PageLogin))
	a.builtin.Register(semantic.MethodPost, "/login", a.login)
	a.builtin.Register(semantic.MethodPost, "/submit-info", a.submitInfo)
	a.builtin.Register(semantic.MethodPost, "/add-list", a.addList)
	a.builtin.Register(semantic.MethodGet, "/get-list", a.getList)
	a.builtin.Register(semantic.MethodPost, "/connect-peer", a.connectPeer)
	a.builtin.Register(semantic.MethodGet, "/get-connections", a.getConnections)
	a.builtin.Register(semantic.MethodPost, "/send-peer", a.sendPeer)
	a.builtin.Register(semantic.MethodPost, "/broadcast-peer", a.broadcastPeer)
	a.builtin.Register(semantic.MethodGet, "/get-log-messages", a.getLogMessages)
	if cfg.Relay != nil {
		a.builtin.Register(semantic.MethodPost, "/relay-message", a.relayMessage)
	}
	a.builtin.Seal()

	cfg.Logger.Debug("routes registered", "pages", a.pages.Len(), "builtin", a.builtin.Len())

	return a
}

// Handle is a [server.HandleFunc].
func (a *App) Handle(c *server.HandleContext, request *semantic.Request) *semantic.Response {
	res := a.dispatch(c, request)

	c.Logger().Info("handled request",
		"method", request.Method,
		"path", request.Path(),
		"status", res.Status.Code,
	)

	return res
}

func (a *App) dispatch(c *server.HandleContext, request *semantic.Request) *semantic.Response {
	method, path := request.Method, request.Path()

	if path == "/favicon.ico" {
		return semantic.NewResponse(status.NoContent, "", nil)
	}

	if h, ok := a.pages.Lookup(method, path); ok {
		if protected[path] && !a.authorized(request) {
			return route.HTML(status.Unauthorized, loginRequired)
		}
		return a.run(c, h, request)
	}

	if h, ok := a.builtin.Lookup(method, path); ok {
		return a.run(c, h, request)
	}

	return server.HTMLError(status.NotFound, "")
}

func (a *App) authorized(request *semantic.Request) bool {
	token, ok := request.Cookie(auth.CookieName)
	if !ok {
		return false
	}
	_, ok = a.cfg.Sessions.Validate(token)
	return ok
}

func (a *App) run(c *server.HandleContext, h route.Handler, request *semantic.Request) *semantic.Response {
	result, err := h(c.Context(), request)
	if err != nil {
		return a.errorResponse(c, err)
	}

	res, err := route.Render(result)
	if err != nil {
		return c.Error(err)
	}
	return res
}

// errorResponse answers JSON routes. Anything unrecognised is a handler fault.
func (a *App) errorResponse(c *server.HandleContext, err error) *semantic.Response {
	var st status.Status
	switch {
	case errors.As(err, new(status.Error)):
		return c.Error(err)
	case errors.Is(err, route.ErrMalformedBody),
		errors.Is(err, directory.ErrValidation),
		errors.Is(err, relay.ErrInvalidMessage),
		errors.Is(err, msglog.ErrInvalidPeerID):
		st = status.BadRequest
	case errors.Is(err, directory.ErrNotFound):
		st = status.NotFound
	case errors.Is(err, relay.ErrDeliveryFailed),
		errors.Is(err, relay.ErrPeerUnreachable):
		st = status.BadGateway
	default:
		return c.Error(err)
	}

	c.Logger().Warn("request failed", "status", st.Code, "error", err)
	return route.JSONError(st, err.Error())
}
