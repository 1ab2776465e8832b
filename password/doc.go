// Package password hashes and verifies user passwords with Argon2id.
//
// Hashes are stored in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification always uses the parameters embedded in the stored hash, so
// raising the cost does not lock out existing users. [Argon2.NeedsUpgrade]
// reports when a stored hash was produced with weaker parameters.
//
// [Argon2.Matches] satisfies the credential verifier used by the login flow.
// This package never stores passwords and never logs them.
package password
