package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger writes one structured entry per request.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := log.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": float64(time.Since(start)) / float64(time.Millisecond),
			"client_ip":  c.ClientIP(),
		}
		if uid := c.GetString(UserIDKey); uid != "" {
			fields["user_id"] = uid
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http.request")
		case status >= http.StatusBadRequest:
			entry.Warn("http.request")
		default:
			entry.Info("http.request")
		}
	}
}

// RecoveryWithLog turns a panic into a 500 and logs the stack.
func RecoveryWithLog(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithFields(log.Fields{
					"panic": err,
					"stack": string(debug.Stack()),
				}).Error("http.panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
