package boardAuth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/refresh"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	testAccessSecret  = []byte("engine-test-access-secret-0123456789")
	testRefreshSecret = []byte("engine-test-refresh-secret-0123456789")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockUserProvider struct {
	mu    sync.Mutex
	users map[int64]UserRecord

	getByEmailCalls atomic.Int64
	getByIDCalls    atomic.Int64
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users: map[int64]UserRecord{
			1: {
				ID:           1,
				Email:        "alice@example.com",
				Nickname:     "alice",
				PasswordHash: "plain:correct-password-123",
				Roles:        []string{"USER"},
			},
			2: {
				ID:           2,
				Email:        "bob@example.com",
				Nickname:     "bob",
				PasswordHash: "plain:bob-password-456",
				Roles:        []string{"USER", "ADMIN"},
			},
		},
	}
}

func (p *mockUserProvider) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	p.getByEmailCalls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.Email == email {
			return u, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (p *mockUserProvider) GetUserByID(_ context.Context, id int64) (UserRecord, error) {
	p.getByIDCalls.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[id]
	if !ok {
		return UserRecord{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return u, nil
}

func (p *mockUserProvider) remove(id int64) {
	p.mu.Lock()
	delete(p.users, id)
	p.mu.Unlock()
}

type plainVerifier struct{}

func (plainVerifier) Matches(plain, hash string) bool {
	return hash == "plain:"+plain
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = testAccessSecret
	cfg.JWT.RefreshSecret = testRefreshSecret
	return cfg
}

type testEngine struct {
	*Engine
	users *mockUserProvider
	clock *testClock
	audit *ChannelSink
}

func newTestEngine(t *testing.T, mutate func(*Builder)) testEngine {
	t.Helper()

	up := newMockUserProvider()
	clk := newTestClock()
	sink := NewChannelSink(256)

	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 256
	cfg.Metrics.EnableLatencyHistograms = true

	b := New().
		WithConfig(cfg).
		WithUserProvider(up).
		WithCredentialVerifier(plainVerifier{}).
		WithAuditSink(sink).
		WithClock(clk.Now)
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return testEngine{Engine: engine, users: up, clock: clk, audit: sink}
}

func (te testEngine) nextEvent(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case ev := <-te.audit.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestLoginReturnsTokenPair(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := WithClientIP(WithRequestID(context.Background(), "req-1"), "10.0.0.1")

	res, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.UserID != 1 || res.Nickname != "alice" || res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.AccessToken == res.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	ev := te.nextEvent(t)
	if ev.EventType != auditEventLoginSuccess || ev.UserID != 1 || !ev.Success {
		t.Fatalf("unexpected audit event %+v", ev)
	}
	if ev.RequestID != "req-1" || ev.IP != "10.0.0.1" {
		t.Fatalf("request metadata missing from audit event: %+v", ev)
	}

	access := te.Validator().Validate(res.AccessToken, jwt.AccessKey)
	if !access.OK() {
		t.Fatalf("access token invalid: %v", access.Err)
	}
	if exp := access.Claims.ExpiresAt.Time; !exp.Equal(te.clock.Now().Add(DefaultAccessTTL)) {
		t.Fatalf("unexpected access expiry %v", exp)
	}
	ref := te.Validator().Validate(res.RefreshToken, jwt.RefreshKey)
	if !ref.OK() {
		t.Fatalf("refresh token invalid: %v", ref.Err)
	}
	if exp := ref.Claims.ExpiresAt.Time; !exp.Equal(te.clock.Now().Add(DefaultRefreshTTL)) {
		t.Fatalf("unexpected refresh expiry %v", exp)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	te := newTestEngine(t, nil)

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"nobody@example.com", "correct-password-123"},
		{"", "correct-password-123"},
	} {
		if _, err := te.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}

	if got := te.MetricsSnapshot().Counters[MetricLoginFailure]; got != 3 {
		t.Fatalf("expected 3 login failures, got %d", got)
	}
	ev := te.nextEvent(t)
	if ev.EventType != auditEventLoginFailure || ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected audit event %+v", ev)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "bob@example.com", "bob-password-456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	te.clock.Advance(45 * time.Minute)
	if res := te.Authenticate(ctx, login.AccessToken); res.Failure != jwt.FailureExpiredToken {
		t.Fatalf("expected the original access token to be expired, got %v", res.Failure)
	}

	res, err := te.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.UserID != 2 || res.Nickname != "bob" {
		t.Fatalf("unexpected refresh result %+v", res)
	}

	auth := te.Authenticate(ctx, res.AccessToken)
	if !auth.OK() {
		t.Fatalf("refreshed access token rejected: %v", auth.Err)
	}
	if auth.Identity.Email != "bob@example.com" || !auth.Identity.HasRole("ADMIN") {
		t.Fatalf("unexpected identity %+v", auth.Identity)
	}

	if _, err := te.Refresh(ctx, login.RefreshToken); err != nil {
		t.Fatalf("refresh token must stay usable: %v", err)
	}
}

func TestRefreshErrors(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.Refresh(ctx, "unknown"); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got %v", err)
	}

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	te.users.remove(1)
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	te.clock.Advance(DefaultRefreshTTL + time.Second)
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricRefreshNotFound] != 1 || snap.Counters[MetricRefreshFailure] != 2 {
		t.Fatalf("unexpected refresh counters %v", snap.Counters)
	}
}

func TestRefreshTokenExpiryBoundary(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	te.clock.Advance(DefaultRefreshTTL - time.Second)
	if _, err := te.Refresh(ctx, login.RefreshToken); err != nil {
		t.Fatalf("refresh one second before expiry failed: %v", err)
	}

	te.clock.Advance(2 * time.Second)
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expiry one second after exp, got %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := te.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := te.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("second Logout must succeed: %v", err)
	}
	if err := te.Logout(ctx, "   "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken for blank token, got %v", err)
	}

	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound after logout, got %v", err)
	}

	if auth := te.Authenticate(ctx, login.AccessToken); !auth.OK() {
		t.Fatalf("access token stays valid until expiry after logout, got %v", auth.Err)
	}
}

func TestAuthenticateClassifiesFailures(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  jwt.FailureKind
		err   error
	}{
		{"missing", "", jwt.FailureMissingToken, ErrMissingToken},
		{"malformed", "abc.def", jwt.FailureMalformedToken, ErrMalformedToken},
		{"refresh as access", login.RefreshToken, jwt.FailureInvalidSignature, ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := te.Authenticate(ctx, tt.token)
			if res.Failure != tt.want || !errors.Is(res.Err, tt.err) {
				t.Fatalf("got %v (%v), want %v", res.Failure, res.Err, tt.want)
			}
			if res.OK() || res.Identity.UserID != 0 {
				t.Fatal("failed authentication must not carry an identity")
			}
		})
	}

	snap := te.MetricsSnapshot()
	if snap.Counters[MetricAuthenticateMissingToken] != 1 ||
		snap.Counters[MetricAuthenticateMalformedToken] != 1 ||
		snap.Counters[MetricAuthenticateInvalidSignature] != 1 {
		t.Fatalf("unexpected authenticate counters %v", snap.Counters)
	}
}

func TestAuthenticateAvoidsProviderCalls(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	te.users.getByEmailCalls.Store(0)
	te.users.getByIDCalls.Store(0)

	res := te.Authenticate(ctx, login.AccessToken)
	if !res.OK() {
		t.Fatalf("Authenticate: %v", res.Err)
	}
	if res.Identity.UserID != 1 || res.Identity.Nickname != "alice" || res.Identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", res.Identity)
	}
	if te.users.getByEmailCalls.Load() != 0 || te.users.getByIDCalls.Load() != 0 {
		t.Fatal("authenticate must not consult the user provider")
	}

	snap := te.MetricsSnapshot()
	var observed uint64
	for _, n := range snap.Histograms[MetricAuthenticateLatency] {
		observed += n
	}
	if observed != 1 {
		t.Fatalf("expected one latency observation, got %d", observed)
	}
}

func TestConcurrentRefreshAndLogout(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 8 {
				errs <- te.Logout(ctx, login.RefreshToken)
				return
			}
			_, err := te.Refresh(ctx, login.RefreshToken)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
			t.Fatalf("unexpected error in race: %v", err)
		}
	}
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected token gone after logout, got %v", err)
	}
}

func TestEngineWithRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	te := newTestEngine(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Store.Backend = StoreRedis
		b.WithConfig(cfg).WithRedis(client)
	})
	ctx := context.Background()

	login, err := te.Login(ctx, "alice@example.com", "correct-password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 {
		t.Fatalf("expected one redis key, got %v", keys)
	}
	if ttl := mr.TTL(mr.Keys()[0]); ttl != DefaultRefreshTTL {
		t.Fatalf("expected refresh TTL on redis key, got %v", ttl)
	}

	if _, err := te.Refresh(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := te.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mr.Close()
	if _, err := te.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable with redis down, got %v", err)
	}
}

func TestEngineWithSuppliedStore(t *testing.T) {
	store := refresh.NewMemoryStore()
	te := newTestEngine(t, func(b *Builder) { b.WithRefreshStore(store) })

	if _, err := te.Login(context.Background(), "alice@example.com", "correct-password-123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected supplied store to hold the credential, got %d", store.Len())
	}
}

func TestBuilderErrors(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without user provider")
	}

	cfg := testConfig()
	cfg.Store.Backend = StoreRedis
	if _, err := New().WithConfig(cfg).WithUserProvider(newMockUserProvider()).Build(); err == nil {
		t.Fatal("expected error for redis backend without client")
	}

	cfg.Store.Backend = StorePostgres
	if _, err := New().WithConfig(cfg).WithUserProvider(newMockUserProvider()).Build(); err == nil {
		t.Fatal("expected error for postgres backend without database")
	}

	if _, err := New().WithUserProvider(newMockUserProvider()).Build(); err == nil {
		t.Fatal("expected error for missing secrets")
	}

	b := New().WithConfig(testConfig()).WithUserProvider(newMockUserProvider()).WithCredentialVerifier(plainVerifier{})
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error when building twice")
	}
}

func TestNilEngineIsNotReady(t *testing.T) {
	var e *Engine
	ctx := context.Background()

	if _, err := e.Login(ctx, "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Login: %v", err)
	}
	if _, err := e.Refresh(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Refresh: %v", err)
	}
	if err := e.Logout(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Logout: %v", err)
	}
	if res := e.Authenticate(ctx, "x"); res.OK() || !errors.Is(res.Err, ErrEngineNotReady) {
		t.Fatalf("Authenticate: %+v", res)
	}
	e.Close()
	if e.AuditDropped() != 0 || len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("nil engine must report empty state")
	}
}

func TestIdentityCloneIsIndependent(t *testing.T) {
	id := Identity{UserID: 1, Roles: []string{"USER", "ADMIN"}}
	c := id.Clone()
	c.Roles[0] = "MUTATED"
	if id.Roles[0] != "USER" {
		t.Fatal("clone shares roles with original")
	}
	if !id.HasRole("ADMIN") || id.HasRole("ROOT") {
		t.Fatal("HasRole mismatch")
	}
	if got := IdentityFromClaims(nil); got.UserID != 0 {
		t.Fatalf("nil claims should give zero identity, got %+v", got)
	}
}
