package middleware

import (
	"context"
	"net/http"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/jwt"
)

type identityContextKey struct{}
type failureContextKey struct{}

// ContextWithIdentity returns a child of ctx carrying a copy of id.
func ContextWithIdentity(ctx context.Context, id boardAuth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, id.Clone())
}

// IdentityFromContext returns a copy of the identity installed for this
// request. It reports false when none is installed, when ctx is nil, or when
// reading the context panics.
func IdentityFromContext(ctx context.Context) (id boardAuth.Identity, ok bool) {
	if ctx == nil {
		return boardAuth.Identity{}, false
	}
	defer func() {
		if recover() != nil {
			id, ok = boardAuth.Identity{}, false
		}
	}()

	stored, ok := ctx.Value(identityContextKey{}).(boardAuth.Identity)
	if !ok {
		return boardAuth.Identity{}, false
	}
	return stored.Clone(), true
}

// IdentityHandlerFunc is a handler that receives the optional caller identity.
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, ok bool)

// WithIdentity resolves the identity before h runs.
func WithIdentity(h IdentityHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		h(w, r, id, ok)
	})
}

func contextWithFailure(ctx context.Context, failure jwt.FailureKind) context.Context {
	return context.WithValue(ctx, failureContextKey{}, failure)
}

// FailureFromContext returns the failure recorded for a rejected request.
func FailureFromContext(ctx context.Context) (jwt.FailureKind, bool) {
	if ctx == nil {
		return jwt.FailureNone, false
	}
	f, ok := ctx.Value(failureContextKey{}).(jwt.FailureKind)
	return f, ok
}
