package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogin_CreatesUserIfNotExists(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "newuser",
		"password": "sha256-from-fe",
	})
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[LoginResponse](t, w)
	require.NotEmpty(t, first.Token)

	claims, err := env.tokens.ValidateToken(first.Token)
	require.NoError(t, err)
	require.Equal(t, first.UserID, claims.UserID)

	w = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "newuser", "password": "sha256-from-fe"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, first.UserID, decode[LoginResponse](t, w).UserID)

	w = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "newuser", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "newuser"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_RejectsBlankUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "   ", "password": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	count, err := env.store.Users.Count(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, count)
}
