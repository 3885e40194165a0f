package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// principalRecorder returns a next handler that captures the context
// principal.
func principalRecorder() (http.Handler, func() (string, bool)) {
	var principal string
	var found bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		principal, found = PrincipalFromContext(r.Context())
	})
	return h, func() (string, bool) { return principal, found }
}

func TestAuth_ValidBearerToken(t *testing.T) {
	next, captured := principalRecorder()
	handler := Auth(AuthConfig{JWTSecret: testSecret})(next)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, found := captured()
	require.True(t, found)
	assert.Equal(t, "alice", principal)
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, req *http.Request)
	}{
		{
			name:  "no credentials",
			setup: func(t *testing.T, req *http.Request) {},
		},
		{
			name: "wrong secret",
			setup: func(t *testing.T, req *http.Request) {
				token := signToken(t, "other-secret", jwt.MapClaims{"sub": "alice"})
				req.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "expired token",
			setup: func(t *testing.T, req *http.Request) {
				token := signToken(t, testSecret, jwt.MapClaims{
					"sub": "alice",
					"exp": time.Now().Add(-time.Hour).Unix(),
				})
				req.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "token without sub",
			setup: func(t *testing.T, req *http.Request) {
				token := signToken(t, testSecret, jwt.MapClaims{"iss": "sqldesk"})
				req.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "dev header with dev mode off",
			setup: func(t *testing.T, req *http.Request) {
				req.Header.Set("X-Principal", "alice")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, captured := principalRecorder()
			handler := Auth(AuthConfig{JWTSecret: testSecret})(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(t, req)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			_, found := captured()
			assert.False(t, found)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestAuth_DevHeader(t *testing.T) {
	next, captured := principalRecorder()
	handler := Auth(AuthConfig{JWTSecret: testSecret, AllowDevHeader: true})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Principal", "bob")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, found := captured()
	require.True(t, found)
	assert.Equal(t, "bob", principal)
}
