package handler

import (
	"errors"
	"net/http"

	"github.com/propsight/propsight-server/internal/model"
)

// handleError translates the service error set into a status code and a
// client-safe message. Unknown errors collapse to a generic 500; storage
// internals never reach the response.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, model.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "password exceeds maximum length")
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, model.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account is inactive")
	case errors.Is(err, model.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, model.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, "token has been revoked")
	case errors.Is(err, model.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "the requested resource was not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
