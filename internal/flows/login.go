package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/refresh"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidInput
	LoginFailureUserNotFound
	LoginFailureUserLookup
	LoginFailurePasswordMismatch
	LoginFailureIssueAccess
	LoginFailureIssueRefresh
	LoginFailureStore
)

// LoginUser is the flow-local view of a user record.
type LoginUser struct {
	ID           int64
	Email        string
	Nickname     string
	PasswordHash string
	Roles        []string
}

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	UserID       int64
	Nickname     string
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	GetUserByEmail func(context.Context, string) (LoginUser, error)
	UserNotFound   error
	Matches        func(plain, encodedHash string) bool
	IssueAccess    func(jwt.IssueInput) (string, error)
	IssueRefresh   func(jwt.IssueInput) (string, error)
	Now            func() time.Time
	Store          refresh.Store
}

// RunLogin verifies the password for email, issues an access and refresh token
// and records the refresh token in the store.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{Failure: LoginFailureInvalidInput}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
			return LoginResult{Failure: LoginFailureUserNotFound, Err: err}
		}
		return LoginResult{Failure: LoginFailureUserLookup, Err: err}
	}

	if !deps.Matches(password, user.PasswordHash) {
		return LoginResult{Failure: LoginFailurePasswordMismatch, UserID: user.ID}
	}

	in := jwt.IssueInput{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.Nickname,
		Roles:       user.Roles,
	}

	access, err := deps.IssueAccess(in)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssueAccess, Err: err, UserID: user.ID}
	}
	refreshToken, err := deps.IssueRefresh(in)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssueRefresh, Err: err, UserID: user.ID}
	}

	if err := deps.Store.Add(ctx, refresh.Credential{
		Value:       refreshToken,
		OwnerUserID: user.ID,
		CreatedAt:   deps.Now(),
	}); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, UserID: user.ID}
	}

	return LoginResult{
		UserID:       user.ID,
		Nickname:     user.Nickname,
		AccessToken:  access,
		RefreshToken: refreshToken,
	}
}
