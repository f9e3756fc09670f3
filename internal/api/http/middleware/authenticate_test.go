package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/propsight/propsight-server/internal/model"
	"github.com/propsight/propsight-server/internal/testutil"
)

type verifierMock struct {
	mock.Mock
}

func (m *verifierMock) Verify(ctx context.Context, accessToken string) (model.AccessClaims, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(model.AccessClaims), args.Error(1)
}

func TestAuthenticate_Handler(t *testing.T) {
	userID := uuid.New()
	verifier := &verifierMock{}
	verifier.On("Verify", mock.Anything, "valid-token").
		Return(model.AccessClaims{UserID: userID, Email: "a@b.com"}, nil)

	var gotID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusNoContent)
	})

	m := NewAuthenticate(verifier, testutil.MakeNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	m.Handler(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID, gotID)
}

func TestAuthenticate_Handler_CaseInsensitiveScheme(t *testing.T) {
	verifier := &verifierMock{}
	verifier.On("Verify", mock.Anything, "valid-token").
		Return(model.AccessClaims{UserID: uuid.New()}, nil)

	m := NewAuthenticate(verifier, testutil.MakeNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "bearer valid-token")
	rec := httptest.NewRecorder()

	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_Handler_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "no token", header: "Bearer "},
		{name: "bare token", header: "sometoken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthenticate(&verifierMock{}, testutil.MakeNoopLogger())
			req := httptest.NewRequest(http.MethodGet, "/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			called := false
			m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestAuthenticate_Handler_InvalidToken(t *testing.T) {
	verifier := &verifierMock{}
	verifier.On("Verify", mock.Anything, "bad-token").
		Return(model.AccessClaims{}, model.ErrTokenInvalid)

	m := NewAuthenticate(verifier, testutil.MakeNoopLogger())
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()

	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
}
