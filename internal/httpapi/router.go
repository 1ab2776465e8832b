package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/board"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/middleware"
)

// Auth is the part of the engine the handlers use. *boardAuth.Engine
// satisfies it.
type Auth interface {
	middleware.TokenAuthenticator
	Login(ctx context.Context, email, password string) (boardAuth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (boardAuth.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Options wires the router. Metrics may be nil, in which case /metrics is not
// served.
type Options struct {
	Auth    Auth
	Board   *board.Service
	Logger  *slog.Logger
	Metrics http.Handler
}

// Handler serves the user and post endpoints.
type Handler struct {
	auth   Auth
	board  *board.Service
	logger *slog.Logger
}

// NewRouter builds the full HTTP surface.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{auth: opts.Auth, board: opts.Board, logger: logger}

	authn := middleware.NewAuthenticator(opts.Auth, middleware.WithLogger(logger))
	required := middleware.Required(authn)
	optional := middleware.Optional(authn)

	mux := http.NewServeMux()

	mux.Handle("POST /users/signup", optional(http.HandlerFunc(h.Signup)))
	mux.Handle("POST /users/login", optional(http.HandlerFunc(h.Login)))
	mux.Handle("DELETE /users/logout", optional(http.HandlerFunc(h.Logout)))
	mux.Handle("POST /users/refreshToken", optional(http.HandlerFunc(h.Refresh)))
	mux.Handle("GET /users/info", required(middleware.WithIdentity(h.Info)))
	mux.Handle("POST /users/myinfo", required(middleware.WithIdentity(h.MyInfo)))

	mux.Handle("POST /api/v1/post", required(middleware.WithIdentity(h.SavePost)))
	mux.Handle("PUT /api/v1/post/{id}", required(middleware.WithIdentity(h.UpdatePost)))
	mux.Handle("DELETE /api/v1/post/{id}", required(middleware.WithIdentity(h.DeletePost)))
	mux.Handle("GET /api/v1/post/{id}", optional(http.HandlerFunc(h.FindPost)))
	mux.Handle("GET /api/v1/post", optional(http.HandlerFunc(h.ListPosts)))

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	mux.HandleFunc("GET /healthz", h.Health)

	return middleware.RequestID(AccessLog(logger)(mux))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
