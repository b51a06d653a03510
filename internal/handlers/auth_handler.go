package handlers

import (
	"errors"
	"net/http"
	"strings"

	"project-board-api/internal/auth"
	"project-board-api/internal/models"
	"project-board-api/internal/store"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Login handles POST /api/login
// Unknown usernames are registered on first login; known ones must present
// the same password.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must not be blank"})
		return
	}
	ctx := c.Request.Context()

	users, err := h.store.Users.FindMany(ctx, store.Filter{"username": username}, "")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var user models.User
	message := "Login successful"
	if len(users) == 0 {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.respondError(c, err)
			return
		}
		user = models.User{Username: username, PasswordHash: hash}
		if err := h.store.Users.Create(ctx, &user); err != nil {
			h.respondError(c, err)
			return
		}
		message = "User created"
	} else {
		user = users[0]
		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			if !errors.Is(err, auth.ErrPasswordMismatch) {
				h.respondError(c, err)
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Message:  message,
	})
}
