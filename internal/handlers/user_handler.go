package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxUserResults = 100

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// GetAllUsers handles GET /api/users?q=&limit=
// Backs the member and assignee pickers; q matches part of the username.
func (h *Handler) GetAllUsers(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(maxUserResults)))
	if err != nil || limit < 1 || limit > maxUserResults {
		limit = maxUserResults
	}

	users, err := h.store.SearchUsers(c.Request.Context(), strings.TrimSpace(c.Query("q")), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Never expose password hashes
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{ID: u.ID, Username: u.Username})
	}
	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}
