package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Algorithm is the only signing algorithm the issuer accepts.
const Algorithm = "HS256"

var (
	// ErrEmptyKey is returned when a signing or verification key is empty.
	ErrEmptyKey = errors.New("empty signing key")
	// ErrInvalidLifetime is returned when a token lifetime is not positive.
	ErrInvalidLifetime = errors.New("invalid token lifetime")
	// errUnsupportedAlgorithm is raised from the key lookup for any alg other than HS256.
	errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// Claims is the payload embedded in every issued token. The subject carries the
// user email.
type Claims struct {
	UserID int64    `json:"id"`
	Roles  []string `json:"roles"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// Email returns the subject claim.
func (c *Claims) Email() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// RoleList returns a copy of the roles in token order.
func (c *Claims) RoleList() []string {
	if c == nil || len(c.Roles) == 0 {
		return nil
	}
	out := make([]string, len(c.Roles))
	copy(out, c.Roles)
	return out
}

// IssueInput is the identity a token is minted for.
type IssueInput struct {
	UserID      int64
	Email       string
	DisplayName string
	Roles       []string
}

// Codec signs and parses compact HS256 tokens. It holds no keys; callers pass
// the key for the token class on every call.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	issuer string
	now    func() time.Time
}

// NewCodec returns a Codec stamping issuer into the iss claim. A nil now uses
// time.Now.
func NewCodec(issuer string, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{issuer: issuer, now: now}
}

// Now returns the codec clock reading.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Issue builds the claim set in one step, sets iat=now and exp=now+lifetime,
// signs it with key and returns the compact encoding.
func (c *Codec) Issue(in IssueInput, lifetime time.Duration, key []byte) (string, error) {
	if lifetime <= 0 {
		return "", ErrInvalidLifetime
	}
	if len(key) == 0 {
		return "", ErrEmptyKey
	}

	now := c.now()
	var roles []string
	if len(in.Roles) > 0 {
		roles = make([]string, len(in.Roles))
		copy(roles, in.Roles)
	}

	claims := Claims{
		UserID: in.UserID,
		Roles:  roles,
		Name:   in.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.Email,
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of tokenStr under key and returns
// its claims. Errors are the raw golang-jwt errors; use [Validator] for a
// classified outcome.
func (c *Codec) Decode(tokenStr string, key []byte) (*Claims, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	options := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		options = append(options, jwt.WithIssuer(c.issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method == nil || t.Method.Alg() != Algorithm {
			return nil, errUnsupportedAlgorithm
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
