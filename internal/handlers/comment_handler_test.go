package handlers

import (
	"context"
	"net/http"
	"testing"

	"project-board-api/internal/models"
	"project-board-api/internal/store"

	"github.com/stretchr/testify/require"
)

func TestCreateComment_NotifiesAssignee(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, "u-1", map[string]any{"name": "Launch"})
	task := env.createTask(t, "u-1", map[string]any{"title": "Design mockups", "project": project.ID, "assignedTo": "u-2"})
	ctx := context.Background()
	commentNotes := func() int64 {
		n, err := env.store.Notifications.Count(ctx, store.Filter{"user_id": "u-2", "type": models.NotificationCommentAdded})
		require.NoError(t, err)
		return n
	}

	w := env.do(t, http.MethodPost, "/api/comments", "u-1", map[string]any{"text": "Looks good", "task": task.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](t, w)
	require.Equal(t, "u-1", comment.AuthorID)
	require.EqualValues(t, 1, commentNotes())

	w = env.do(t, http.MethodPost, "/api/comments", "u-2", map[string]any{"text": "Thanks", "task": task.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	require.EqualValues(t, 1, commentNotes())

	w = env.do(t, http.MethodGet, "/api/comments/task/"+task.ID, "u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]models.Comment](t, w)
	require.Len(t, comments, 2)
	require.Equal(t, "Looks good", comments[0].Text)
}

func TestCreateComment_Rejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/comments", "u-1", map[string]any{"text": "hello", "task": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/comments", "u-1", map[string]any{"task": "missing"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	count, err := env.store.Comments.Count(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, "u-1", map[string]any{"name": "Launch"})
	task := env.createTask(t, "u-1", map[string]any{"title": "t", "project": project.ID})
	w := env.do(t, http.MethodPost, "/api/comments", "u-1", map[string]any{"text": "mine", "task": task.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[models.Comment](t, w)

	w = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, "u-2", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, "u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/comments/"+comment.ID, "u-1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
