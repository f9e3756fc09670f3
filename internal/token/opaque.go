package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/propsight/propsight-server/internal/model"
)

// opaqueByteLength gives 384 bits of entropy per refresh token, comfortably
// above the 256-bit floor.
const opaqueByteLength = 48

var _ model.OpaqueTokenGenerator = (*Opaque)(nil)

// Opaque generates URL-safe random refresh tokens and their SHA-256 digests.
// The digest is the only form ever persisted.
type Opaque struct{}

// NewOpaque creates a new Opaque generator.
func NewOpaque() *Opaque {
	return &Opaque{}
}

// Generate returns a cryptographically random URL-safe token.
func (o *Opaque) Generate() (string, error) {
	buf := make([]byte, opaqueByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the hex-encoded SHA-256 digest of the token. Deterministic and
// one-way: the plaintext token cannot be recovered from it.
func (o *Opaque) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
