// Package token implements the access-token codec and the opaque
// refresh-token generator.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/propsight/propsight-server/internal/model"
)

// Claims represents JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

var _ model.AccessTokenCodec = (*JWT)(nil)

// JWT implements AccessTokenCodec backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	method    *jwt.SigningMethodHMAC
}

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// NewJWT creates a codec for the given secret and HMAC algorithm name.
// An empty secret or unknown algorithm is a configuration error, caught at
// startup rather than per request.
func NewJWT(secretKey, algorithm string) (*JWT, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: signing secret is empty", model.ErrConfig)
	}
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", model.ErrConfig, algorithm)
	}
	return &JWT{secretKey: []byte(secretKey), method: method}, nil
}

// Encode signs the claims with an expiry of now+ttl.
func (j *JWT) Encode(claims model.AccessClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(j.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: claims.UserID,
		Email:  claims.Email,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// Decode verifies signature and expiry and extracts the claims.
func (j *JWT) Decode(tokenString string) (model.AccessClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.AccessClaims{}, model.ErrTokenExpired
		}
		return model.AccessClaims{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}
	if claims.UserID == uuid.Nil {
		return model.AccessClaims{}, model.ErrTokenInvalid
	}

	return model.AccessClaims{UserID: claims.UserID, Email: claims.Email}, nil
}
