package boardAuth

import (
	"errors"

	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/refresh"
)

// Token failures. Each is the sentinel behind one [jwt.FailureKind].
var (
	ErrMissingToken         = jwt.ErrMissingToken
	ErrMalformedToken       = jwt.ErrMalformedToken
	ErrExpiredToken         = jwt.ErrExpiredToken
	ErrUnsupportedToken     = jwt.ErrUnsupportedToken
	ErrInvalidSignature     = jwt.ErrInvalidSignature
	ErrAuthenticationFailed = jwt.ErrAuthenticationFailed
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a token names a user that no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshTokenNotFound is returned when a refresh token is absent from the store.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrDuplicateCredential is returned when a refresh token value is already stored.
	ErrDuplicateCredential = refresh.ErrDuplicateCredential
	// ErrStoreUnavailable is returned when the refresh store backend fails.
	ErrStoreUnavailable = refresh.ErrStoreUnavailable
	// ErrLoginRateLimited is returned by Login while the account or client IP
	// is over its failed-attempt budget.
	ErrLoginRateLimited = errors.New("too many login attempts")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
