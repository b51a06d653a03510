package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications handles GET /api/notifications
// Returns the caller's notifications, newest first.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notifications, err := h.inbox.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.inbox.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
// Repeating the call returns the same record.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.inbox.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// DeleteNotification handles DELETE /api/notifications/:id
func (h *Handler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.inbox.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Notification deleted successfully",
		"id":      id,
	})
}
