package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore defines persistence operations for refresh-token records.
// Records are keyed by the SHA-256 digest of the opaque token; the plaintext
// token is never stored.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (RefreshToken, error)
	// Rotate atomically revokes the record matching oldHash and inserts the
	// successor. When the record is already revoked or gone, no write happens
	// and ErrTokenRevoked is returned: of two concurrent rotations presenting
	// the same token, exactly one succeeds.
	Rotate(ctx context.Context, oldHash string, successor RefreshToken) error
	Revoke(ctx context.Context, tokenHash string) error
	RevokeFamily(ctx context.Context, familyID uuid.UUID) error
	DeleteByHash(ctx context.Context, tokenHash string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshToken is a stored refresh-token record. FamilyID groups the records
// produced by successive rotations of one login session. Revoked is
// monotonic: once true it never flips back.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	FamilyID  uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Live reports whether the record is usable at the given instant.
func (t RefreshToken) Live(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
