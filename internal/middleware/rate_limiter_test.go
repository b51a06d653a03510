package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"project-board-api/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func doFrom(r *gin.Engine, addr string) int {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_PerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	visitors := cache.NewSimpleCache[string, *rate.Limiter]()
	r := gin.New()
	r.Use(RateLimiter(visitors, rate.Limit(1), 1, time.Minute))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, doFrom(r, "127.0.0.1:1000"))
	require.Equal(t, http.StatusTooManyRequests, doFrom(r, "127.0.0.1:1001"))
	require.Equal(t, http.StatusOK, doFrom(r, "10.0.0.2:1000"))
	require.Equal(t, 2, visitors.Len())
}
