// Package refresh persists issued refresh credentials so they can be looked up on
// refresh and revoked on logout.
//
// # Storage model
//
// A [Credential] is keyed by its token value. Presence in a [Store] is the only
// signal that the credential may still be redeemed; signature and expiry checks are
// done by the caller with the jwt package before or after the lookup. There is no
// update operation: a credential is added once and later deleted.
//
// Three backends are provided: [MemoryStore] for tests and single-process servers,
// [RedisStore] (keys expire with the refresh lifetime) and [PostgresStore] over
// database/sql with the pgx driver.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT parse or verify tokens and does
// not decide whether a credential is expired.
//
// # What this package must NOT do
//
//   - Import boardAuth, jwt, or middleware (no upward imports).
//   - Rotate or rewrite stored credentials.
//   - Log token values.
package refresh
