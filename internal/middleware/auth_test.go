package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"project-board-api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTokens() *auth.Tokens {
	return auth.NewTokens("test-secret", "issuer", "audience", time.Hour)
}

func newProtectedRouter(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(tokens))
	r.GET("/protected", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(UserIDKey)) })
	return r
}

func TestJWTAuthMiddleware_Success(t *testing.T) {
	tokens := newTokens()
	r := newProtectedRouter(tokens)

	token, err := tokens.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-1", w.Body.String())
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	tokens := newTokens()
	r := newProtectedRouter(tokens)

	token, err := tokens.GenerateToken("user-2", "bob")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	r := newProtectedRouter(newTokens())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_BadToken(t *testing.T) {
	r := newProtectedRouter(newTokens())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
