package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsight/propsight-server/internal/model"
)

func TestNewJWT_Config(t *testing.T) {
	_, err := NewJWT("", "HS256")
	require.ErrorIs(t, err, model.ErrConfig)

	_, err = NewJWT("secret", "RS256")
	require.ErrorIs(t, err, model.ErrConfig)

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		_, err := NewJWT("secret", alg)
		require.NoError(t, err, alg)
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	codec, err := NewJWT("test-secret", "HS256")
	require.NoError(t, err)

	in := model.AccessClaims{UserID: uuid.New(), Email: "a@b.com"}
	tokenString, err := codec.Encode(in, time.Hour)
	require.NoError(t, err)

	out, err := codec.Decode(tokenString)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJWT_Expired(t *testing.T) {
	codec, err := NewJWT("test-secret", "HS256")
	require.NoError(t, err)

	tokenString, err := codec.Encode(model.AccessClaims{UserID: uuid.New(), Email: "a@b.com"}, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(tokenString)
	require.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	signer, err := NewJWT("secret-one", "HS256")
	require.NoError(t, err)
	verifier, err := NewJWT("secret-two", "HS256")
	require.NoError(t, err)

	tokenString, err := signer.Encode(model.AccessClaims{UserID: uuid.New(), Email: "a@b.com"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Decode(tokenString)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_Malformed(t *testing.T) {
	codec, err := NewJWT("test-secret", "HS256")
	require.NoError(t, err)

	_, err = codec.Decode("not.a.jwt")
	require.ErrorIs(t, err, model.ErrTokenInvalid)

	_, err = codec.Decode("")
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_MissingUserID(t *testing.T) {
	codec, err := NewJWT("test-secret", "HS256")
	require.NoError(t, err)

	tokenString, err := codec.Encode(model.AccessClaims{Email: "a@b.com"}, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(tokenString)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}
