// Package middleware exposes the HTTP authentication interceptor built on
// boardAuth.Engine.Authenticate.
//
// # Interceptors
//
//   - [Required] rejects requests without a valid access token.
//   - [Optional] lets requests with no Authorization header through anonymously.
//   - [Guard] is Required over an Engine with the default failure handler.
//
// Each request moves through Start, TokenExtracted and then Authenticated or
// Rejected. On success the identity is installed in the request context and
// read back with [IdentityFromContext] or the [WithIdentity] adapter. On
// rejection the failure kind is stored in the context and the configured
// [FailureHandler] renders the response; the wrapped handler is never called.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to the Engine).
//   - Touch the user store or the refresh store.
//   - Leak an identity across requests; it lives only in the per-request context.
package middleware
