package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/boardAuth/refresh"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store refresh.Store
}

// LogoutResult reports whether the credential delete reached the store.
type LogoutResult struct {
	Missing bool
	Err     error
}

// RunLogout removes refreshToken from the store. Removing an unknown token
// succeeds.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if strings.TrimSpace(refreshToken) == "" {
		return LogoutResult{Missing: true}
	}
	return LogoutResult{Err: deps.Store.DeleteByValue(ctx, refreshToken)}
}
