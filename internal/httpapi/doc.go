// Package httpapi exposes the board and the authentication flows over HTTP.
//
// Routes use net/http method patterns. Every request gets a request id and an
// access log line; bearer authentication is applied per route, required for
// profile reads and post changes and optional elsewhere.
package httpapi
