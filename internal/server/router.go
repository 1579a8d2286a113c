package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures the middleware installed by [NewRouter].
type RouterOptions struct {
	// Production enables the strict security headers of [SecureHeaders].
	Production bool
	// MaxBodyBytes caps request bodies; 0 disables the limit.
	MaxBodyBytes int64
}

// ChiRouter is an HTTP router implementing the [Router] interface.
//
// Uses a [chi.Mux] internally for routing.
type ChiRouter struct {
	mux *chi.Mux
}

// NewBareRouter creates a [ChiRouter] with no middleware installed.
func NewBareRouter() *ChiRouter {
	return &ChiRouter{mux: chi.NewRouter()}
}

// NewRouter creates a [ChiRouter] with the standard middleware stack:
// request IDs, real IPs, request logging, panic recovery, security headers,
// body limits and a heartbeat at /healthz.
func NewRouter(logger *log.Logger, opts RouterOptions) *ChiRouter {
	r := NewBareRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(logger),
		middleware.Recoverer,
		SecureHeaders(opts.Production),
		LimitBody(opts.MaxBodyBytes),
		middleware.Heartbeat("/healthz"),
	)
	return r
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// All middleware must be added before the first route.
func (r *ChiRouter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
//
// Paths use chi patterns, e.g. "/songs/{id}/edit".
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// HandleFunc registers a handler function for the specified HTTP method and path.
func (r *ChiRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler for every method.
func (r *ChiRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// NotFound sets the handler for unmatched paths.
func (r *ChiRouter) NotFound(fn http.HandlerFunc) {
	r.mux.NotFound(fn)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
