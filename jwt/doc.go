// Package jwt issues and verifies the HS256 bearer tokens used by boardAuth and
// classifies every verification failure into a [FailureKind].
//
// # Token classes
//
// Access and refresh tokens share one claim shape ([Claims]) and differ only in
// signing key and lifetime. A [Validator] holds both keys and is told which
// [KeyClass] to verify against, so an access token presented as a refresh token
// (or the reverse) fails with [FailureInvalidSignature].
//
// # Architecture boundaries
//
// This package owns claim construction, signing, parsing and failure
// classification. It does not read HTTP headers, touch the refresh-credential
// store, or decide what a failure means for the response.
//
// # What this package must NOT do
//
//   - Import boardAuth, middleware or refresh.
//   - Perform I/O.
//   - Collapse distinct failure kinds into one error.
package jwt
