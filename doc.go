// Package boardAuth provides the token authentication pipeline of the board
// service: HS256 access and refresh tokens, a refresh credential store with
// revocation, and per-request identity derived from the access token alone.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// boardAuth is the public surface. It exposes [Engine], [Builder], [Config], and value types
// ([Identity], [LoginResult], [RefreshResult], [MetricsSnapshot]). Flow orchestration and
// audit dispatch live under internal/ and are never exported. Token encoding lives in the
// jwt sub-package, refresh storage in refresh, and the HTTP interceptor in middleware.
//
// # What this package must NOT do
//
//   - Expose Redis clients or database handles in its public API.
//   - Perform I/O outside of Engine methods (Build only allocates).
//   - Rotate refresh tokens. A refresh token stays valid until it expires or is logged out.
//
// # Performance contract
//
// Authenticate is the hot path. It verifies the signature and expiry in memory and never
// reads the user store or the refresh store.
package boardAuth
