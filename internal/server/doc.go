// Package server provides HTTP routing, middleware, and the dashboard API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method-qualified [http.ServeMux] patterns,
// so path wildcards and automatic 405 responses come from the stdlib mux.
//
// # Dashboard API
//
// [API] implements the [Handler] interface and serves the JSON control
// surface: tracked playlists, sync jobs, downloads, and a status summary.
// Sync jobs created over HTTP run in the background; the response returns
// immediately with the job record.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
