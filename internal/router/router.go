// Package router maps exact (method, path) pairs to handlers.
package router

import (
	"fmt"

	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/response"
	"github.com/nhdewitt/httpdemo/internal/server"
)

const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

type Route struct {
	Method string
	Path   string
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// Router is built once at startup and read-only afterwards.
type Router struct {
	table  map[Route]server.Handler
	routes []Route
}

func New() *Router {
	return &Router{table: make(map[Route]server.Handler)}
}

// Handle registers h for the exact method and path. Registering the same
// pair twice is a programming error and panics.
func (rt *Router) Handle(method, path string, h server.Handler) {
	route := Route{Method: method, Path: path}
	if _, ok := rt.table[route]; ok {
		panic(fmt.Sprintf("router: duplicate route %s", route))
	}
	rt.table[route] = h
	rt.routes = append(rt.routes, route)
}

func (rt *Router) Get(path string, h server.Handler) {
	rt.Handle(MethodGet, path, h)
}

func (rt *Router) Post(path string, h server.Handler) {
	rt.Handle(MethodPost, path, h)
}

// Routes lists the registered routes in registration order.
func (rt *Router) Routes() []Route {
	out := make([]Route, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// Lookup finds the handler for an exact method and path. The query string
// never takes part in selection.
func (rt *Router) Lookup(method, path string) (server.Handler, bool) {
	h, ok := rt.table[Route{Method: method, Path: path}]
	return h, ok
}

// Dispatch is a server.Handler that forwards to the matching route, or
// answers 404 when there is none.
func (rt *Router) Dispatch(w *response.Writer, req *request.Request) error {
	h, ok := rt.Lookup(req.RequestLine.Method, req.Path())
	if !ok {
		return NotFound(w, req)
	}
	return h(w, req)
}

func NotFound(w *response.Writer, _ *request.Request) error {
	const body = "Not Found"
	if err := w.WriteStatusLine(response.StatusNotFound); err != nil {
		return err
	}
	if err := w.WriteHeaders(response.GetDefaultHeaders(len(body))); err != nil {
		return err
	}
	_, err := w.WriteText(body)
	return err
}
