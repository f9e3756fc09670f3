package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/model"
)

// createAttempts bounds regeneration retries on a token-hash collision.
// A collision means the digest already exists; the token is regenerated,
// never reused.
const createAttempts = 3

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Session orchestrates registration, login, refresh rotation and logout.
// It is stateless; all shared mutable state lives in the stores.
type Session struct {
	users      model.UserStore
	tokens     model.RefreshTokenStore
	hasher     model.PasswordHasher
	opaque     model.OpaqueTokenGenerator
	codec      model.AccessTokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *logger.Logger
}

// NewSession creates a Session service with its collaborators.
func NewSession(
	users model.UserStore,
	tokens model.RefreshTokenStore,
	hasher model.PasswordHasher,
	opaque model.OpaqueTokenGenerator,
	codec model.AccessTokenCodec,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *Session {
	return &Session{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		opaque:     opaque,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates a new account and returns the public profile.
func (s *Session) Register(ctx context.Context, email, password, fullName string) (model.Profile, error) {
	s.logger.Debug("Session service: registering user", "email", email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Profile{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		s.logger.Info("Session service: email already registered", "email", email)
		return model.Profile{}, model.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.Profile{}, err
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.users.Create(ctx, user)
	if err != nil {
		// The pre-check races with concurrent registration; the unique index
		// is authoritative.
		if errors.Is(err, model.ErrEmailTaken) {
			return model.Profile{}, model.ErrEmailTaken
		}
		s.logger.Error("Session service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.Profile{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("Session service: user registered", "email", email)
	return saved.Profile(), nil
}

// Login verifies credentials and issues an access/refresh token pair. A
// missing account and a wrong password are indistinguishable to the caller.
func (s *Session) Login(ctx context.Context, email, password, userAgent string) (TokenPair, error) {
	s.logger.Debug("Session service: login attempt", "email", email)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("Session service: stored hash verification failed",
			"email", email,
			"error", err.Error())
		return TokenPair{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return TokenPair{}, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		return TokenPair{}, model.ErrAccountInactive
	}

	access, err := s.codec.Encode(model.AccessClaims{UserID: user.ID, Email: user.Email}, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	// Fresh family id: this login starts a new rotation chain.
	refresh, err := s.createRefreshToken(ctx, user.ID, uuid.New(), userAgent)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("Session service: login succeeded", "email", email)

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// Refresh rotates the presented refresh token and issues a new pair. Exactly
// one of two concurrent calls with the same token value succeeds; the loser
// observes ErrTokenRevoked from the store's conditional update.
func (s *Session) Refresh(ctx context.Context, presented, userAgent string) (TokenPair, error) {
	hash := s.opaque.Hash(presented)

	stored, err := s.tokens.GetByHash(ctx, hash)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("Session service: unknown refresh token presented")
		return TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if stored.Revoked {
		// A rotated token coming back is a theft signal: either the original
		// holder or the thief already spent it. Kill the whole family.
		s.logger.Warn("Session service: revoked refresh token reused, revoking family",
			"user_id", stored.UserID,
			"family_id", stored.FamilyID)
		if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("Session service: failed to revoke token family",
				"family_id", stored.FamilyID,
				"error", err.Error())
		}
		return TokenPair{}, model.ErrTokenRevoked
	}

	if time.Now().After(stored.ExpiresAt) {
		return TokenPair{}, model.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	newRefresh, err := s.rotateRefreshToken(ctx, hash, stored, userAgent)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.codec.Encode(model.AccessClaims{UserID: user.ID, Email: user.Email}, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// Logout retires the presented refresh token. Best effort: a missing or
// already-invalid token still leaves the caller logged out, so nothing here
// is an error.
func (s *Session) Logout(ctx context.Context, presented string) {
	if presented == "" {
		return
	}
	hash := s.opaque.Hash(presented)
	if err := s.tokens.DeleteByHash(ctx, hash); err != nil {
		s.logger.Warn("Session service: logout cleanup failed", "error", err.Error())
	}
}

// Verify decodes an access token and returns its claims.
func (s *Session) Verify(ctx context.Context, accessToken string) (model.AccessClaims, error) {
	return s.codec.Decode(accessToken)
}

// Sessions lists the live refresh-token records of a user.
func (s *Session) Sessions(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	all, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := time.Now()
	live := all[:0]
	for _, t := range all {
		if t.Live(now) {
			live = append(live, t)
		}
	}
	return live, nil
}

// RunGC deletes expired refresh-token records on the given interval until the
// context is cancelled.
func (s *Session) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.tokens.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("Session service: token sweep failed", "error", err.Error())
				continue
			}
			if n > 0 {
				s.logger.Info("Session service: swept expired refresh tokens", "count", n)
			}
		}
	}
}

func (s *Session) createRefreshToken(ctx context.Context, userID, familyID uuid.UUID, userAgent string) (string, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		plain, err := s.opaque.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate refresh token: %w", err)
		}

		now := time.Now()
		rt := model.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: s.opaque.Hash(plain),
			FamilyID:  familyID,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.refreshTTL),
			UserAgent: userAgent,
		}

		err = s.tokens.Create(ctx, rt)
		if errors.Is(err, model.ErrDuplicateHash) {
			s.logger.Warn("Session service: refresh token hash collision, regenerating")
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to persist refresh token: %w", err)
		}
		return plain, nil
	}
	return "", fmt.Errorf("failed to persist refresh token: %w", model.ErrDuplicateHash)
}

func (s *Session) rotateRefreshToken(ctx context.Context, oldHash string, old model.RefreshToken, userAgent string) (string, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		plain, err := s.opaque.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate refresh token: %w", err)
		}

		now := time.Now()
		successor := model.RefreshToken{
			ID:        uuid.New(),
			UserID:    old.UserID,
			TokenHash: s.opaque.Hash(plain),
			FamilyID:  old.FamilyID,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.refreshTTL),
			UserAgent: userAgent,
		}

		err = s.tokens.Rotate(ctx, oldHash, successor)
		if errors.Is(err, model.ErrDuplicateHash) {
			s.logger.Warn("Session service: refresh token hash collision, regenerating")
			continue
		}
		if errors.Is(err, model.ErrTokenRevoked) {
			// Lost a concurrent rotation for the same token value.
			return "", model.ErrTokenRevoked
		}
		if err != nil {
			return "", fmt.Errorf("failed to rotate refresh token: %w", err)
		}
		return plain, nil
	}
	return "", fmt.Errorf("failed to rotate refresh token: %w", model.ErrDuplicateHash)
}
