package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/jwt"
)

type fakeTokens struct {
	mu    sync.Mutex
	calls []string
	fn    func(token string) boardAuth.AuthResult
}

func (f *fakeTokens) Authenticate(_ context.Context, token string) boardAuth.AuthResult {
	f.mu.Lock()
	f.calls = append(f.calls, token)
	f.mu.Unlock()
	return f.fn(token)
}

func validFor(id boardAuth.Identity) func(string) boardAuth.AuthResult {
	return func(token string) boardAuth.AuthResult {
		if token != "good" {
			return boardAuth.AuthResult{Failure: jwt.FailureInvalidSignature, Err: jwt.ErrInvalidSignature}
		}
		return boardAuth.AuthResult{Identity: id}
	}
}

var alice = boardAuth.Identity{UserID: 7, Email: "alice@example.com", Nickname: "alice", Roles: []string{"USER", "ADMIN"}}

type captured struct {
	called bool
	id     boardAuth.Identity
	ok     bool
}

func capture(c *captured) http.Handler {
	return WithIdentity(func(w http.ResponseWriter, _ *http.Request, id boardAuth.Identity, ok bool) {
		c.called = true
		c.id = id
		c.ok = ok
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, authorization ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/users/info", nil)
	for _, v := range authorization {
		req.Header.Add("Authorization", v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) failureBody {
	t.Helper()
	var body failureBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRequiredInstallsIdentity(t *testing.T) {
	tokens := &fakeTokens{fn: validFor(alice)}
	var got captured
	h := Required(NewAuthenticator(tokens))(capture(&got))

	rec := serve(h, "Bearer good")
	if rec.Code != http.StatusNoContent || !got.called || !got.ok {
		t.Fatalf("expected handler with identity, code=%d got=%+v", rec.Code, got)
	}
	if got.id.UserID != 7 || got.id.Email != "alice@example.com" || got.id.Nickname != "alice" {
		t.Fatalf("unexpected identity %+v", got.id)
	}
	if len(got.id.Roles) != 2 || got.id.Roles[0] != "USER" || got.id.Roles[1] != "ADMIN" {
		t.Fatalf("roles must keep token order, got %v", got.id.Roles)
	}
}

func TestRequiredRejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   jwt.FailureKind
	}{
		{"absent", nil, jwt.FailureMissingToken},
		{"wrong scheme", []string{"Basic abc"}, jwt.FailureMissingToken},
		{"lowercase scheme", []string{"bearer good"}, jwt.FailureMissingToken},
		{"bearer only", []string{"Bearer"}, jwt.FailureMissingToken},
		{"bearer blank", []string{"Bearer    "}, jwt.FailureMissingToken},
		{"bad token", []string{"Bearer forged"}, jwt.FailureInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &fakeTokens{fn: validFor(alice)}
			var got captured
			h := Required(NewAuthenticator(tokens))(capture(&got))

			rec := serve(h, tt.header...)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got.called {
				t.Fatal("next handler must not run on rejection")
			}
			body := decodeFailure(t, rec)
			if body.Error != "authentication failed" || body.Code != tt.want.Code() {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestMissingTokenSkipsValidation(t *testing.T) {
	tokens := &fakeTokens{fn: validFor(alice)}
	h := Required(NewAuthenticator(tokens))(capture(&captured{}))

	serve(h, "Token abc")
	if len(tokens.calls) != 0 {
		t.Fatalf("validator should not run without a bearer token, calls=%v", tokens.calls)
	}
}

func TestOptionalMode(t *testing.T) {
	tokens := &fakeTokens{fn: validFor(alice)}
	auth := NewAuthenticator(tokens)

	var anon captured
	rec := serve(Optional(auth)(capture(&anon)))
	if rec.Code != http.StatusNoContent || !anon.called || anon.ok {
		t.Fatalf("anonymous request should pass without identity: code=%d %+v", rec.Code, anon)
	}

	var bad captured
	rec = serve(Optional(auth)(capture(&bad)), "Bearer forged")
	if rec.Code != http.StatusUnauthorized || bad.called {
		t.Fatalf("present but invalid header must be rejected, code=%d", rec.Code)
	}

	var empty captured
	rec = serve(Optional(auth)(capture(&empty)), "")
	if rec.Code != http.StatusUnauthorized || empty.called {
		t.Fatalf("present but empty header must be rejected, code=%d", rec.Code)
	}

	var good captured
	serve(Optional(auth)(capture(&good)), "Bearer good")
	if !good.ok || good.id.UserID != 7 {
		t.Fatalf("valid token should install identity in optional mode: %+v", good)
	}
}

func TestFailureHandlerSeesFailureInContext(t *testing.T) {
	tokens := &fakeTokens{fn: func(string) boardAuth.AuthResult {
		return boardAuth.AuthResult{Failure: jwt.FailureExpiredToken, Err: jwt.ErrExpiredToken}
	}}

	var fromCtx jwt.FailureKind
	var ok bool
	handler := func(w http.ResponseWriter, r *http.Request, failure jwt.FailureKind) {
		fromCtx, ok = FailureFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}

	h := Required(NewAuthenticator(tokens, WithFailureHandler(handler)))(capture(&captured{}))
	rec := serve(h, "Bearer old")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("custom handler not used, code=%d", rec.Code)
	}
	if !ok || fromCtx != jwt.FailureExpiredToken {
		t.Fatalf("failure not recorded in context: %v %v", fromCtx, ok)
	}
}

func TestPanicInValidationIsRejected(t *testing.T) {
	var logs bytes.Buffer
	tokens := &fakeTokens{fn: func(string) boardAuth.AuthResult { panic("kaboom") }}
	var got captured
	h := Required(NewAuthenticator(tokens, WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))))(capture(&got))

	rec := serve(h, "Bearer good")
	if rec.Code != http.StatusUnauthorized || got.called {
		t.Fatalf("panic must end in rejection, code=%d", rec.Code)
	}
	if body := decodeFailure(t, rec); body.Code != "AUTHENTICATION_FAILED" {
		t.Fatalf("unexpected code %q", body.Code)
	}
	if !strings.Contains(logs.String(), "authentication panic") {
		t.Fatalf("panic not logged: %q", logs.String())
	}
}

func TestUnclassifiedResultIsRejected(t *testing.T) {
	tokens := &fakeTokens{fn: func(string) boardAuth.AuthResult {
		return boardAuth.AuthResult{Err: errors.New("odd")}
	}}
	rec := serve(Required(NewAuthenticator(tokens))(capture(&captured{})), "Bearer good")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeFailure(t, rec); body.Code != "AUTHENTICATION_FAILED" {
		t.Fatalf("unexpected code %q", body.Code)
	}
}

func TestNilAuthenticatorRejects(t *testing.T) {
	rec := serve(Required(NewAuthenticator(nil))(capture(&captured{})), "Bearer good")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIdentityFromContextEdgeCases(t *testing.T) {
	//lint:ignore SA1012 nil context is part of the contract
	if _, ok := IdentityFromContext(nil); ok {
		t.Fatal("nil ctx must report absent")
	}
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatal("empty ctx must report absent")
	}

	wrong := context.WithValue(context.Background(), identityContextKey{}, "not an identity")
	if _, ok := IdentityFromContext(wrong); ok {
		t.Fatal("wrong type must report absent")
	}

	if _, ok := IdentityFromContext(panickyContext{}); ok {
		t.Fatal("panicking ctx must report absent")
	}

	ctx := ContextWithIdentity(context.Background(), alice)
	first, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("identity missing")
	}
	first.Roles[0] = "MUTATED"
	second, _ := IdentityFromContext(ctx)
	if second.Roles[0] != "USER" {
		t.Fatal("accessor must return independent copies")
	}
}

type panickyContext struct{ context.Context }

func (panickyContext) Value(any) any { panic("broken context") }

func TestIdentityDoesNotLeakBetweenRequests(t *testing.T) {
	tokens := &fakeTokens{fn: func(token string) boardAuth.AuthResult {
		if token == "anon" {
			return boardAuth.AuthResult{Failure: jwt.FailureMalformedToken, Err: jwt.ErrMalformedToken}
		}
		return boardAuth.AuthResult{Identity: boardAuth.Identity{UserID: int64(len(token))}}
	}}
	auth := NewAuthenticator(tokens)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := strings.Repeat("x", n)
			h := Optional(auth)(WithIdentity(func(w http.ResponseWriter, _ *http.Request, id boardAuth.Identity, ok bool) {
				if !ok || id.UserID != int64(n) {
					errs <- token
				}
			}))
			serve(h, "Bearer "+token)

			h = Optional(auth)(WithIdentity(func(w http.ResponseWriter, _ *http.Request, _ boardAuth.Identity, ok bool) {
				if ok {
					errs <- "anonymous request saw an identity"
				}
			}))
			serve(h)
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("identity leaked: %s", e)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seenID, seenIP string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = boardAuth.RequestIDFromContext(r.Context())
		seenIP = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seenID != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("incoming id not reused: %q", seenID)
	}
	if seenIP == "" {
		t.Fatal("remote addr missing")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("z", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(seenID) != 36 || rec.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("expected generated uuid, got %q", seenID)
	}
}

func TestGuardWithEngine(t *testing.T) {
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	users := staticUsers{
		1: {ID: 1, Email: "alice@example.com", Nickname: "alice", PasswordHash: "pw", Roles: []string{"USER"}},
	}
	cfg := boardAuth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("middleware-access-secret-0123456789ab")
	cfg.JWT.RefreshSecret = []byte("middleware-refresh-secret-0123456789ab")

	engine, err := boardAuth.New().
		WithConfig(cfg).
		WithUserProvider(users).
		WithCredentialVerifier(equalVerifier{}).
		WithClock(func() time.Time { return clock }).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	login, err := engine.Login(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	var got captured
	rec := serve(Guard(engine)(capture(&got)), "Bearer "+login.AccessToken)
	if rec.Code != http.StatusNoContent || got.id.Nickname != "alice" {
		t.Fatalf("guard rejected valid token: code=%d %+v", rec.Code, got)
	}

	rec = serve(Guard(engine)(capture(&captured{})), "Bearer "+login.RefreshToken)
	if body := decodeFailure(t, rec); body.Code != "INVALID_SIGNATURE" {
		t.Fatalf("refresh token as access should fail signature, got %q", body.Code)
	}

	var nilEngine *boardAuth.Engine
	rec = serve(Guard(nilEngine)(capture(&captured{})), "Bearer "+login.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("nil engine must reject, got %d", rec.Code)
	}
}

type staticUsers map[int64]boardAuth.UserRecord

func (s staticUsers) GetUserByEmail(_ context.Context, email string) (boardAuth.UserRecord, error) {
	for _, u := range s {
		if u.Email == email {
			return u, nil
		}
	}
	return boardAuth.UserRecord{}, boardAuth.ErrUserNotFound
}

func (s staticUsers) GetUserByID(_ context.Context, id int64) (boardAuth.UserRecord, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return boardAuth.UserRecord{}, boardAuth.ErrUserNotFound
}

type equalVerifier struct{}

func (equalVerifier) Matches(plain, hash string) bool { return plain == hash }
