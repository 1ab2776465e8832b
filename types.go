package boardAuth

import (
	"context"
	"slices"

	"github.com/MrEthical07/boardAuth/jwt"
)

// Identity is the authenticated caller derived from a validated access token.
// It lives only in the request context and is never persisted.
type Identity struct {
	UserID   int64
	Email    string
	Nickname string
	Roles    []string
}

// Clone returns a copy whose Roles slice is not shared with i.
func (i Identity) Clone() Identity {
	i.Roles = slices.Clone(i.Roles)
	return i
}

// HasRole reports whether role is among the identity's roles.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IdentityFromClaims builds an Identity from validated claims.
func IdentityFromClaims(c *jwt.Claims) Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{
		UserID:   c.UserID,
		Email:    c.Email(),
		Nickname: c.Name,
		Roles:    c.RoleList(),
	}
}

// UserRecord is the account data the Engine needs to issue tokens.
type UserRecord struct {
	ID           int64
	Email        string
	Nickname     string
	PasswordHash string
	Roles        []string
}

// UserProvider is implemented by the application's user repository. Both
// lookups return [ErrUserNotFound] (or an error wrapping it) for a missing user.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id int64) (UserRecord, error)
}

// CredentialVerifier checks a plaintext password against a stored hash.
// [password.Argon2] satisfies it.
type CredentialVerifier interface {
	Matches(plain, encodedHash string) bool
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	UserID       int64
	Nickname     string
}

// RefreshResult is returned by [Engine.Refresh]. The refresh token itself is
// not rotated.
type RefreshResult struct {
	AccessToken string
	UserID      int64
	Nickname    string
}

// AuthResult is returned by [Engine.Authenticate]. Failure is [jwt.FailureNone]
// exactly when Identity is populated.
type AuthResult struct {
	Identity Identity
	Failure  jwt.FailureKind
	Err      error
}

// OK reports whether authentication succeeded.
func (r AuthResult) OK() bool {
	return r.Failure == jwt.FailureNone && r.Err == nil
}
