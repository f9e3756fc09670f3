package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/model"
	"github.com/propsight/propsight-server/internal/service"
)

// RefreshCookieName is the cookie carrying the opaque refresh token.
const RefreshCookieName = "refresh_token"

// refreshCookiePath restricts the cookie to the rotation endpoint.
const refreshCookiePath = "/auth/refresh"

// SessionService defines the session operations the auth endpoints need.
type SessionService interface {
	Register(ctx context.Context, email, password, fullName string) (model.Profile, error)
	Login(ctx context.Context, email, password, userAgent string) (service.TokenPair, error)
	Refresh(ctx context.Context, presented, userAgent string) (service.TokenPair, error)
	Logout(ctx context.Context, presented string)
}

// Auth handles the register/login/refresh/logout endpoints.
type Auth struct {
	sessions      SessionService
	secureCookie  bool
	refreshMaxAge int
	logger        *logger.Logger
}

// NewAuth creates an Auth handler. secureCookie marks the refresh cookie
// Secure (production); refreshMaxAge is the cookie lifetime in seconds.
func NewAuth(sessions SessionService, secureCookie bool, refreshMaxAge int, logger *logger.Logger) *Auth {
	return &Auth{
		sessions:      sessions,
		secureCookie:  secureCookie,
		refreshMaxAge: refreshMaxAge,
		logger:        logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Register creates a new account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if msg, ok := validateCredentials(req.Email, req.Password); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	h.logger.Info("Auth handler: registration request", "email", req.Email)

	profile, err := h.sessions.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.logger.Error("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, profile)
}

// Login verifies credentials and returns the token pair. The refresh token
// additionally travels in an HTTP-only cookie scoped to the refresh endpoint.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if msg, ok := validateCredentials(req.Email, req.Password); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	pair, err := h.sessions.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		h.logger.Error("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeResult(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh rotates the cookie-borne refresh token and returns a new access
// token. Any failure clears the cookie so clients stop retrying a dead token.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), cookie.Value, r.UserAgent())
	if err != nil {
		h.logger.Warn("Auth handler: refresh failed", "error", err.Error())
		h.clearRefreshCookie(w)
		handleError(w, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeResult(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "bearer",
	})
}

// Logout retires the session. Always 200: a missing or invalid token already
// means no valid session remains.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		h.sessions.Logout(r.Context(), cookie.Value)
	}

	h.clearRefreshCookie(w)
	writeResult(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

func (h *Auth) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.refreshMaxAge,
	})
}

func (h *Auth) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func validateCredentials(email, password string) (string, bool) {
	if email == "" || !strings.Contains(email, "@") {
		return "email must be a valid address", false
	}
	if len(password) < 6 {
		return "password must be at least 6 characters", false
	}
	return "", true
}
