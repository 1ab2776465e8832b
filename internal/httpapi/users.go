package httpapi

import (
	"errors"
	"net/http"
	"strings"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/board"
	"github.com/MrEthical07/boardAuth/internal/logging"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
}

type signupResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ID           int64  `json:"id"`
	Nickname     string `json:"nickname"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ID          int64  `json:"id"`
	Nickname    string `json:"nickname"`
}

type profileResponse struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Phone    string   `json:"phone"`
	Roles    []string `json:"roles"`
}

type infoResponse struct {
	Identity identityResponse `json:"identity"`
	Profile  profileResponse  `json:"profile"`
}

type identityResponse struct {
	UserID   int64    `json:"userId"`
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles"`
}

func profileOf(u board.User) profileResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return profileResponse{ID: u.ID, Email: u.Email, Nickname: u.Nickname, Phone: u.Phone, Roles: roles}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}

	res := h.board.Signup(r.Context(), board.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	switch {
	case res.OK():
		writeJSON(w, http.StatusCreated, signupResponse{ID: res.Value.ID, Email: res.Value.Email, Nickname: res.Value.Nickname})
	case errors.Is(res.Err, board.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, res.Err.Error())
	case errors.Is(res.Err, board.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		h.internal(w, r, "signup failed", res.Err)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loginResponse{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			ID:           res.UserID,
			Nickname:     res.Nickname,
		})
	case errors.Is(err, boardAuth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, boardAuth.ErrLoginRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
	case errors.Is(err, boardAuth.ErrStoreUnavailable):
		h.unavailable(w, r, err)
	default:
		h.internal(w, r, "login failed", err)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.auth.Logout(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, boardAuth.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "refreshToken is required")
	case errors.Is(err, boardAuth.ErrStoreUnavailable):
		h.unavailable(w, r, err)
	default:
		h.internal(w, r, "logout failed", err)
	}
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: res.AccessToken, ID: res.UserID, Nickname: res.Nickname})
	case errors.Is(err, boardAuth.ErrRefreshTokenNotFound):
		writeError(w, http.StatusNotFound, "refresh token not found")
	case errors.Is(err, boardAuth.ErrStoreUnavailable):
		h.unavailable(w, r, err)
	case errors.Is(err, boardAuth.ErrUserNotFound),
		errors.Is(err, boardAuth.ErrAuthenticationFailed),
		errors.Is(err, boardAuth.ErrExpiredToken),
		errors.Is(err, boardAuth.ErrMalformedToken),
		errors.Is(err, boardAuth.ErrUnsupportedToken),
		errors.Is(err, boardAuth.ErrInvalidSignature),
		errors.Is(err, boardAuth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
	default:
		h.internal(w, r, "refresh failed", err)
	}
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, _ bool) {
	res := h.board.UserByID(r.Context(), id.UserID)
	if !res.OK() {
		h.userError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Identity: identityResponse{UserID: id.UserID, Email: id.Email, Nickname: id.Nickname, Roles: id.Roles},
		Profile:  profileOf(res.Value),
	})
}

func (h *Handler) MyInfo(w http.ResponseWriter, r *http.Request, id boardAuth.Identity, _ bool) {
	res := h.board.UserByID(r.Context(), id.UserID)
	if !res.OK() {
		h.userError(w, r, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, profileOf(res.Value))
}

func (h *Handler) userError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, board.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	h.internal(w, r, "user lookup failed", err)
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithContext(r.Context(), h.logger).Error("refresh store unavailable", logging.Error(err))
	writeError(w, http.StatusServiceUnavailable, "service unavailable")
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.WithContext(r.Context(), h.logger).Error(msg, logging.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
