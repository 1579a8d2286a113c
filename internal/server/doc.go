// Package server provides HTTP routing, middleware and lifecycle management for the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in the order they are added, following the standard Go pattern.
//
// The [ChiRouter] implementation is backed by a chi mux, which provides URL parameters,
// method matching (405 on a known path with the wrong method) and the stock chi middleware
// installed by [NewRouter]: request IDs, real IP resolution, panic recovery and a /healthz heartbeat.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Server] runs an [http.Server] until its context is cancelled and then shuts down gracefully,
// giving in-flight requests [ShutdownTimeout] to finish.
package server
