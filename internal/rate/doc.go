// Package rate throttles failed logins with Redis fixed-window counters.
//
// # Window semantics
//
// INCR + EXPIRE on the first hit of a window. Keys are <prefix>:u:<email> for
// the per-account counter and <prefix>:ip:<ip> for the optional per-IP one.
//
// # What this package must NOT do
//
//   - Count successful logins.
//   - Import boardAuth or any sibling internal package.
package rate
