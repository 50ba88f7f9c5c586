// Package route maps (method, path) pairs to handlers.
//
// A [Registry] is filled during startup and sealed before serving.
// Lookups after sealing are read-only and safe for concurrent use.
package route

import (
	"context"
	"fmt"

	"peer-chat/application/http/semantic"
)

// Handler answers a request with a result rendered by [Render].
type Handler func(ctx context.Context, request *semantic.Request) (any, error)

type key struct {
	method semantic.Method
	path   string
}

type Registry struct {
	routes map[key]Handler
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[key]Handler)}
}

// Register adds a route. Paths are matched exactly.
// It panics on a sealed registry or a duplicate route.
func (r *Registry) Register(method semantic.Method, path string, h Handler) {
	if r.sealed {
		panic(fmt.Sprintf("route: registering %s %s on a sealed registry", method, path))
	}

	k := key{method: method, path: path}
	if _, ok := r.routes[k]; ok {
		panic(fmt.Sprintf("route: duplicate route %s %s", method, path))
	}
	r.routes[k] = h
}

// Seal forbids further registration.
func (r *Registry) Seal() { r.sealed = true }

func (r *Registry) Lookup(method semantic.Method, path string) (Handler, bool) {
	h, ok := r.routes[key{method: method, path: path}]
	return h, ok
}

// Len returns the number of routes.
func (r *Registry) Len() int { return len(r.routes) }
