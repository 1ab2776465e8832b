package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/jwt"
)

// TokenAuthenticator validates an access token. *boardAuth.Engine satisfies it.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) boardAuth.AuthResult
}

// FailureHandler renders a rejected request. The failure is also available
// through [FailureFromContext] on r.
type FailureHandler func(w http.ResponseWriter, r *http.Request, failure jwt.FailureKind)

// Authenticator turns the Authorization header into a request identity.
type Authenticator struct {
	tokens    TokenAuthenticator
	onFailure FailureHandler
	logger    *slog.Logger
}

// Option configures an [Authenticator].
type Option func(*Authenticator)

// WithFailureHandler replaces [DefaultFailureHandler].
func WithFailureHandler(h FailureHandler) Option {
	return func(a *Authenticator) {
		if h != nil {
			a.onFailure = h
		}
	}
}

// WithLogger sets the logger used for unclassified failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthenticator returns an Authenticator delegating validation to tokens.
func NewAuthenticator(tokens TokenAuthenticator, opts ...Option) *Authenticator {
	a := &Authenticator{
		tokens:    tokens,
		onFailure: DefaultFailureHandler,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Guard is Required(NewAuthenticator(engine)).
func Guard(engine *boardAuth.Engine) func(http.Handler) http.Handler {
	return Required(NewAuthenticator(engine))
}

// Required rejects every request that does not carry a valid access token.
func Required(a *Authenticator) func(http.Handler) http.Handler {
	return a.middleware(false)
}

// Optional lets requests without an Authorization header through anonymously.
// A header that is present but invalid is still rejected.
func Optional(a *Authenticator) func(http.Handler) http.Handler {
	return a.middleware(true)
}

type state int

const (
	stateStart state = iota
	stateTokenExtracted
	stateAuthenticated
	stateRejected
	stateAnonymous
)

type outcome struct {
	state    state
	identity boardAuth.Identity
	failure  jwt.FailureKind
}

func (a *Authenticator) middleware(optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := a.run(r, optional)

			switch out.state {
			case stateAuthenticated:
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), out.identity)))
			case stateAnonymous:
				next.ServeHTTP(w, r)
			default:
				a.onFailure(w, r.WithContext(contextWithFailure(r.Context(), out.failure)), out.failure)
			}
		})
	}
}

// run drives one request from Start to a terminal state. A panic anywhere in
// extraction or validation ends in Rejected with FailureUnknown.
func (a *Authenticator) run(r *http.Request, optional bool) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.WithContext(r.Context(), a.logger).Error("authentication panic",
				logging.Path(r.URL.Path), logging.Error(fmt.Errorf("%v", rec)))
			out = outcome{state: stateRejected, failure: jwt.FailureUnknown}
		}
	}()

	if a == nil || a.tokens == nil {
		return outcome{state: stateRejected, failure: jwt.FailureUnknown}
	}

	st := stateStart
	var token string
	for {
		switch st {
		case stateStart:
			values := r.Header.Values("Authorization")
			if len(values) == 0 && optional {
				return outcome{state: stateAnonymous}
			}
			var ok bool
			token, ok = bearerToken(r.Header.Get("Authorization"))
			if !ok {
				return outcome{state: stateRejected, failure: jwt.FailureMissingToken}
			}
			st = stateTokenExtracted

		case stateTokenExtracted:
			res := a.tokens.Authenticate(r.Context(), token)
			if !res.OK() {
				failure := res.Failure
				if failure == jwt.FailureNone {
					failure = jwt.FailureUnknown
				}
				if failure == jwt.FailureUnknown {
					logging.WithContext(r.Context(), a.logger).Warn("unclassified authentication failure",
						logging.Path(r.URL.Path), logging.Error(res.Err))
				}
				return outcome{state: stateRejected, failure: failure}
			}
			return outcome{state: stateAuthenticated, identity: res.Identity.Clone()}

		default:
			return outcome{state: stateRejected, failure: jwt.FailureUnknown}
		}
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	_, token, ok := strings.Cut(value, " ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}

	return token, true
}

type failureBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DefaultFailureHandler writes 401 {"error":"authentication failed","code":CODE}.
// The body never reveals more than the failure code.
func DefaultFailureHandler(w http.ResponseWriter, _ *http.Request, failure jwt.FailureKind) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(failureBody{
		Error: "authentication failed",
		Code:  failure.Code(),
	})
}
