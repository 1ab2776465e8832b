package boardAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/boardAuth/internal/audit"
	"github.com/MrEthical07/boardAuth/internal/flows"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/internal/rate"
	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/refresh"
)

// Engine issues, validates and refreshes tokens. Build it with [Builder]; all
// methods are safe for concurrent use.
type Engine struct {
	config       Config
	codec        *jwt.Codec
	validator    *jwt.Validator
	store        refresh.Store
	userProvider UserProvider
	verifier     CredentialVerifier
	limiter      *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	flows        flows.Service
}

func (e *Engine) flowDeps() flows.Deps {
	return flows.Deps{
		Login: flows.LoginDeps{
			GetUserByEmail: func(ctx context.Context, email string) (flows.LoginUser, error) {
				u, err := e.userProvider.GetUserByEmail(ctx, email)
				if err != nil {
					return flows.LoginUser{}, err
				}
				return flows.LoginUser{
					ID:           u.ID,
					Email:        u.Email,
					Nickname:     u.Nickname,
					PasswordHash: u.PasswordHash,
					Roles:        u.Roles,
				}, nil
			},
			UserNotFound: ErrUserNotFound,
			Matches:      e.verifier.Matches,
			IssueAccess:  e.issueAccess,
			IssueRefresh: e.issueRefresh,
			Now:          e.now,
			Store:        e.store,
		},
		Refresh: flows.RefreshDeps{
			Store: e.store,
			ValidateRefresh: func(token string) jwt.Result {
				return e.validator.Validate(token, jwt.RefreshKey)
			},
			GetUserByID: func(ctx context.Context, id int64) (flows.RefreshUser, error) {
				u, err := e.userProvider.GetUserByID(ctx, id)
				if err != nil {
					return flows.RefreshUser{}, err
				}
				return flows.RefreshUser{ID: u.ID, Email: u.Email, Nickname: u.Nickname}, nil
			},
			UserNotFound: ErrUserNotFound,
			IssueAccess:  e.issueAccess,
		},
		Logout: flows.LogoutDeps{
			Store: e.store,
		},
		Authenticate: flows.AuthenticateDeps{
			ValidateAccess: func(token string) jwt.Result {
				return e.validator.Validate(token, jwt.AccessKey)
			},
		},
	}
}

func (e *Engine) issueAccess(in jwt.IssueInput) (string, error) {
	return e.codec.Issue(in, e.config.JWT.AccessTTL, e.config.JWT.AccessSecret)
}

func (e *Engine) issueRefresh(in jwt.IssueInput) (string, error) {
	return e.codec.Issue(in, e.config.JWT.RefreshTTL, e.config.JWT.RefreshSecret)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Close drains and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events that never reached the sink.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Validator exposes the token validator for callers that need raw claims.
func (e *Engine) Validator() *jwt.Validator {
	if e == nil {
		return nil
	}
	return e.validator
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login checks email and password and returns a fresh access and refresh
// token. The refresh token is recorded in the store before it is returned.
// Unknown emails and wrong passwords both yield [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if !e.ready() {
		return LoginResult{}, ErrEngineNotReady
	}

	if err := e.checkLoginThrottle(ctx, email); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, 0, err, nil)
		return LoginResult{}, err
	}

	res := e.flows.Login(ctx, email, password)
	if res.Failure != flows.LoginFailureNone {
		err := e.loginError(res)
		if errors.Is(err, ErrInvalidCredentials) {
			e.recordLoginFailure(ctx, email)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, err, nil)
		if !errors.Is(err, ErrInvalidCredentials) {
			logging.WithContext(ctx, e.logger).Error("login failed", logging.UserID(res.UserID), logging.Error(res.Err))
		}
		return LoginResult{}, err
	}

	e.resetLoginThrottle(ctx, email)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.UserID, nil, nil)

	return LoginResult{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UserID:       res.UserID,
		Nickname:     res.Nickname,
	}, nil
}

func (e *Engine) loginError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureInvalidInput,
		flows.LoginFailureUserNotFound,
		flows.LoginFailurePasswordMismatch:
		return ErrInvalidCredentials
	case flows.LoginFailureStore:
		return res.Err
	case flows.LoginFailureUserLookup:
		return fmt.Errorf("user lookup: %w", res.Err)
	default:
		return fmt.Errorf("issue tokens: %w", res.Err)
	}
}

// Refresh exchanges a stored refresh token for a new access token. The refresh
// token is not rotated and stays valid until it expires or is logged out.
//
// Errors: [ErrRefreshTokenNotFound] when the token is not stored, one of the
// token sentinels ([ErrExpiredToken], [ErrInvalidSignature], ...) when it no
// longer verifies, and [ErrUserNotFound] when its owner is gone.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if !e.ready() {
		return RefreshResult{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure != flows.RefreshFailureNone {
		err := e.refreshError(res)
		if res.Failure == flows.RefreshFailureNotFound {
			e.metricInc(MetricRefreshNotFound)
		} else {
			e.metricInc(MetricRefreshFailure)
		}
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.UserID, err, func() map[string]string {
			if res.Failure != flows.RefreshFailureToken {
				return nil
			}
			return map[string]string{"failure": res.Token.Code()}
		})
		switch res.Failure {
		case flows.RefreshFailureStore, flows.RefreshFailureUserLookup, flows.RefreshFailureIssueAccess:
			logging.WithContext(ctx, e.logger).Error("refresh failed", logging.UserID(res.UserID), logging.Error(res.Err))
		}
		return RefreshResult{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)

	return RefreshResult{
		AccessToken: res.AccessToken,
		UserID:      res.UserID,
		Nickname:    res.Nickname,
	}, nil
}

func (e *Engine) refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureNotFound:
		return ErrRefreshTokenNotFound
	case flows.RefreshFailureToken:
		if res.Err != nil {
			return res.Err
		}
		return res.Token.Sentinel()
	case flows.RefreshFailureOwnerMismatch:
		return ErrAuthenticationFailed
	case flows.RefreshFailureUserNotFound:
		return ErrUserNotFound
	case flows.RefreshFailureStore:
		return res.Err
	case flows.RefreshFailureUserLookup:
		return fmt.Errorf("user lookup: %w", res.Err)
	default:
		return fmt.Errorf("issue access token: %w", res.Err)
	}
}

// Logout deletes the refresh token from the store. Logging out an unknown or
// already removed token succeeds; a blank token yields [ErrMissingToken].
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, strings.TrimSpace(refreshToken))
	if res.Missing {
		return ErrMissingToken
	}
	if res.Err != nil {
		logging.WithContext(ctx, e.logger).Error("logout failed", logging.Error(res.Err))
		e.emitAudit(ctx, auditEventLogout, false, 0, res.Err, nil)
		return res.Err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, 0, nil, nil)
	return nil
}

// Authenticate validates an access token and derives the caller identity.
// It never consults the user store.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) AuthResult {
	if !e.ready() {
		return AuthResult{Failure: jwt.FailureUnknown, Err: ErrEngineNotReady}
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := e.flows.Authenticate(ctx, accessToken)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	if res.Failure != jwt.FailureNone {
		e.metricInc(authenticateMetric(res.Failure))
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, 0, res.Err, func() map[string]string {
			return map[string]string{"failure": res.Failure.Code()}
		})
		if res.Failure == jwt.FailureUnknown {
			logging.WithContext(ctx, e.logger).Warn("authentication failed", logging.Failure(res.Failure.Code()), logging.Error(res.Err))
		}
		return AuthResult{Failure: res.Failure, Err: res.Err}
	}

	e.metricInc(MetricAuthenticateSuccess)
	return AuthResult{Identity: IdentityFromClaims(res.Claims)}
}

func authenticateMetric(f jwt.FailureKind) MetricID {
	switch f {
	case jwt.FailureMissingToken:
		return MetricAuthenticateMissingToken
	case jwt.FailureMalformedToken:
		return MetricAuthenticateMalformedToken
	case jwt.FailureExpiredToken:
		return MetricAuthenticateExpiredToken
	case jwt.FailureUnsupportedToken:
		return MetricAuthenticateUnsupportedToken
	case jwt.FailureInvalidSignature:
		return MetricAuthenticateInvalidSignature
	default:
		return MetricAuthenticateUnknownFailure
	}
}
