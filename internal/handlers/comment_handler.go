package handlers

import (
	"fmt"
	"net/http"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"
	"project-board-api/internal/notify"
	"project-board-api/internal/store"

	"github.com/gin-gonic/gin"
)

type CreateCommentRequest struct {
	Text   string `json:"text" binding:"required"`
	TaskID string `json:"task" binding:"required"`
}

// GetTaskComments handles GET /api/comments/task/:taskId
// Oldest first.
func (h *Handler) GetTaskComments(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	comments, err := h.store.Comments.FindMany(c.Request.Context(), store.Filter{"task_id": c.Param("taskId")}, "created_at asc")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment handles POST /api/comments
// The caller is the author. The task's assignee is notified unless they
// wrote the comment.
func (h *Handler) CreateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := models.Comment{Text: req.Text, TaskID: req.TaskID, AuthorID: userID}
	if err := comment.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	task, err := h.store.Tasks.FindByID(ctx, comment.TaskID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.Comments.Create(ctx, &comment); err != nil {
		h.respondError(c, err)
		return
	}

	h.dispatcher.Notify(ctx, notify.CommentCreated(comment, &task))
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/comments/:id
// Only the author may delete.
func (h *Handler) DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	comment, err := h.store.Comments.FindByID(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if comment.AuthorID != userID {
		h.respondError(c, fmt.Errorf("comment %q belongs to another user: %w", id, apperr.ErrForbidden))
		return
	}
	if err := h.store.Comments.DeleteByID(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
		"id":      id,
	})
}
