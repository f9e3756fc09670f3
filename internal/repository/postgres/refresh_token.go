package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/propsight/propsight-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (
            id, user_id, token_hash, family_id, issued_at, expires_at, revoked, user_agent, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.IssuedAt, token.ExpiresAt, token.Revoked, token.UserAgent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateHash
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	const query = `
        SELECT id, user_id, token_hash, family_id, issued_at, expires_at, revoked, user_agent, created_at, updated_at
        FROM refresh_tokens WHERE token_hash = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.FamilyID, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.Revoked, &rt.UserAgent, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by hash: %w", err)
	}
	return rt, nil
}

// Rotate retires the record matching oldHash and inserts its successor in one
// transaction. The conditional update is the linearization point: the losing
// side of a concurrent rotation matches zero rows and gets ErrTokenRevoked.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldHash string, successor model.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE refresh_tokens SET revoked = TRUE, updated_at = NOW()
        WHERE token_hash = $1 AND NOT revoked
    `, oldHash)
	if err != nil {
		return fmt.Errorf("failed to retire refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenRevoked
	}

	if successor.ID == uuid.Nil {
		successor.ID = uuid.New()
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO refresh_tokens (
            id, user_id, token_hash, family_id, issued_at, expires_at, revoked, user_agent, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
    `, successor.ID, successor.UserID, successor.TokenHash, successor.FamilyID,
		successor.IssuedAt, successor.ExpiresAt, successor.Revoked, successor.UserAgent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateHash
		}
		return fmt.Errorf("failed to create successor token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	const query = `
        UPDATE refresh_tokens SET revoked = TRUE, updated_at = NOW()
        WHERE token_hash = $1 AND NOT revoked
    `
	if _, err := r.db.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	const query = `
        UPDATE refresh_tokens SET revoked = TRUE, updated_at = NOW()
        WHERE family_id = $1 AND NOT revoked
    `
	if _, err := r.db.Exec(ctx, query, familyID); err != nil {
		return fmt.Errorf("failed to revoke token family: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	const query = `DELETE FROM refresh_tokens WHERE token_hash = $1`
	if _, err := r.db.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	const query = `
        SELECT id, user_id, token_hash, family_id, issued_at, expires_at, revoked, user_agent, created_at, updated_at
        FROM refresh_tokens WHERE user_id = $1 ORDER BY issued_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.RefreshToken
	for rows.Next() {
		var rt model.RefreshToken
		if err := rows.Scan(
			&rt.ID, &rt.UserID, &rt.TokenHash, &rt.FamilyID, &rt.IssuedAt, &rt.ExpiresAt,
			&rt.Revoked, &rt.UserAgent, &rt.CreatedAt, &rt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh tokens: %w", err)
	}
	return tokens, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
