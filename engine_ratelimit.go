package boardAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/internal/rate"
)

// The throttle fails open: a Redis outage is logged and the login proceeds.

func (e *Engine) checkLoginThrottle(ctx context.Context, email string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.CheckLogin(ctx, email, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		logging.WithContext(ctx, e.logger).Warn("login throttle unavailable", logging.Error(err))
		return nil
	}
}

func (e *Engine) recordLoginFailure(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, email, clientIPFromContext(ctx)); err != nil {
		logging.WithContext(ctx, e.logger).Warn("login throttle unavailable", logging.Error(err))
	}
}

func (e *Engine) resetLoginThrottle(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.Reset(ctx, email); err != nil {
		logging.WithContext(ctx, e.logger).Warn("login throttle unavailable", logging.Error(err))
	}
}
