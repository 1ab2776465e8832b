package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/boardAuth/jwt"
)

// AuthenticateResult is the classified outcome of access token validation.
type AuthenticateResult struct {
	Failure jwt.FailureKind
	Err     error
	Claims  *jwt.Claims
}

// AuthenticateDeps captures access validation dependencies.
type AuthenticateDeps struct {
	ValidateAccess func(string) jwt.Result
}

// RunAuthenticate validates accessToken with the access key. A panic raised by
// the validator is converted into FailureUnknown.
func RunAuthenticate(_ context.Context, accessToken string, deps AuthenticateDeps) (out AuthenticateResult) {
	defer func() {
		if r := recover(); r != nil {
			out = AuthenticateResult{
				Failure: jwt.FailureUnknown,
				Err:     fmt.Errorf("%w: panic during validation: %v", jwt.ErrAuthenticationFailed, r),
			}
		}
	}()

	res := deps.ValidateAccess(accessToken)
	if !res.OK() {
		failure := res.Failure
		if failure == jwt.FailureNone {
			failure = jwt.FailureUnknown
		}
		err := res.Err
		if err == nil {
			err = failure.Sentinel()
		}
		return AuthenticateResult{Failure: failure, Err: err}
	}
	return AuthenticateResult{Claims: res.Claims}
}
