// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, RunAuthenticate) accepts
// a typed dependency struct and returns a tagged result whose Failure field
// classifies what went wrong. The Engine maps failures to sentinel errors,
// metrics and audit events.
//
// Flows do not own any resource. Stores, validators and user lookups are
// passed in, which keeps every flow testable with in-memory fakes.
//
// This package must not import boardAuth.
package flows
