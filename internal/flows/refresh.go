package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/refresh"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNotFound
	RefreshFailureStore
	RefreshFailureToken
	RefreshFailureOwnerMismatch
	RefreshFailureUserNotFound
	RefreshFailureUserLookup
	RefreshFailureIssueAccess
)

// RefreshUser is the flow-local view of the token owner.
type RefreshUser struct {
	ID       int64
	Email    string
	Nickname string
}

// RefreshResult carries either a new access token or failure metadata. Token
// is set when Failure is RefreshFailureToken.
type RefreshResult struct {
	Failure     RefreshFailureKind
	Token       jwt.FailureKind
	Err         error
	UserID      int64
	Nickname    string
	AccessToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Store           refresh.Store
	ValidateRefresh func(string) jwt.Result
	GetUserByID     func(context.Context, int64) (RefreshUser, error)
	UserNotFound    error
	IssueAccess     func(jwt.IssueInput) (string, error)
}

// RunRefresh exchanges a stored refresh token for a new access token. The
// stored credential is left in place.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	cred, err := deps.Store.FindByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}

	res := deps.ValidateRefresh(cred.Value)
	if !res.OK() {
		return RefreshResult{
			Failure: RefreshFailureToken,
			Token:   res.Failure,
			Err:     res.Err,
			UserID:  cred.OwnerUserID,
		}
	}
	claims := res.Claims

	if claims.UserID != cred.OwnerUserID {
		return RefreshResult{Failure: RefreshFailureOwnerMismatch, UserID: cred.OwnerUserID}
	}

	user, err := deps.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return RefreshResult{Failure: RefreshFailureUserNotFound, Err: err, UserID: claims.UserID}
		}
		return RefreshResult{Failure: RefreshFailureUserLookup, Err: err, UserID: claims.UserID}
	}

	access, err := deps.IssueAccess(jwt.IssueInput{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.Nickname,
		Roles:       claims.RoleList(),
	})
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, UserID: user.ID}
	}

	return RefreshResult{
		UserID:      user.ID,
		Nickname:    user.Nickname,
		AccessToken: access,
	}
}
