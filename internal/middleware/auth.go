package middleware

import (
	"net/http"
	"strings"

	"project-board-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// TokenValidator is the verify(token) capability the API depends on.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuthMiddleware validates JWT token in Authorization header
func JWTAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = strings.TrimSpace(parts[1])
			}
		}
		// Browsers cannot set headers on a WebSocket handshake.
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
