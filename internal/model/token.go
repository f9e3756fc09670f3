package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessClaims are the application claims carried by an access token.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
}

// AccessTokenCodec encodes and decodes signed access tokens. Decode is a pure
// function of (token, secret, clock): it has no side effects and hits no
// storage.
type AccessTokenCodec interface {
	Encode(claims AccessClaims, ttl time.Duration) (string, error)
	Decode(token string) (AccessClaims, error)
}

// OpaqueTokenGenerator produces random refresh tokens and their at-rest
// digests.
type OpaqueTokenGenerator interface {
	Generate() (string, error)
	Hash(token string) string
}

// PasswordHasher hashes and verifies passwords. Verify returns false on
// mismatch; an error means the stored hash is malformed.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}
