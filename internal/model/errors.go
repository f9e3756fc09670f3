package model

import "errors"

// Storage-level errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateHash = errors.New("refresh token hash already exists")
	ErrEmailTaken    = errors.New("email already registered")
	ErrCorruptRecord = errors.New("stored record is malformed")
)

// Session errors. The HTTP layer maps each to a status code; the set is
// closed so the mapping stays exhaustive.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("refresh token revoked")
	ErrTokenExpired        = errors.New("refresh token expired")
	ErrTokenInvalid        = errors.New("access token invalid")
	ErrPasswordTooLong     = errors.New("password exceeds maximum length")
)

// ErrConfig covers invalid startup configuration, such as an empty signing
// secret. It is fatal at process start, never returned per-request.
var ErrConfig = errors.New("invalid configuration")
