package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"project-board-api/internal/auth"
	"project-board-api/internal/cache"
	"project-board-api/internal/handlers"
	"project-board-api/internal/realtime"
	"project-board-api/internal/store"
	"project-board-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	logger, _ := testutil.NewLogger()
	tokens := auth.NewTokens("test-secret", "test", "test", time.Hour)
	h := handlers.New(handlers.Deps{
		Store:  store.New(db),
		Relay:  realtime.NewRelay(realtime.NewHub(), logger),
		Tokens: tokens,
		Logger: logger,
	})
	return SetupRoutes(h, Options{
		Logger:      logger,
		Tokens:      tokens,
		CORSOrigins: origins,
		Visitors:    cache.NewSimpleCache[string, *rate.Limiter](),
		RateLimit:   rate.Limit(100),
		RateBurst:   100,
		IdleTTL:     time.Minute,
	})
}

func TestHealth(t *testing.T) {
	r := newRouter(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newRouter(t, nil)
	for _, path := range []string{"/api/projects", "/api/notifications", "/api/tasks/project/p1", "/ws"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCORS_AllowListedOrigin(t *testing.T) {
	r := newRouter(t, []string{"http://localhost:3000"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
