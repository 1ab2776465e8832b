// Package board implements the message board: accounts and posts behind a
// repository interface with in-memory and Postgres implementations.
//
// Operations return [Result] values. Missing users, missing posts and changes
// by someone other than the author are reported as ErrUserNotFound,
// ErrPostNotFound and ErrForbidden.
package board
