package handlers

import (
	"errors"
	"net/http"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"
	"project-board-api/internal/notify"
	"project-board-api/internal/realtime"
	"project-board-api/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AssignedTo  string              `json:"assignedTo"`
	ProjectID   string              `json:"project" binding:"required"`
	DueDate     string              `json:"dueDate"`
	Subtasks    []models.Subtask    `json:"subtasks"`
	Tags        []string            `json:"tags"`
	Attachments []string            `json:"attachments"`
	TimeSpent   int                 `json:"timeSpent"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// Project is accepted only to reject changes to it.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	AssignedTo  *string              `json:"assignedTo"`
	ProjectID   *string              `json:"project"`
	DueDate     *string              `json:"dueDate"`
	Subtasks    *[]models.Subtask    `json:"subtasks"`
	Tags        *[]string            `json:"tags"`
	Attachments *[]string            `json:"attachments"`
	TimeSpent   *int                 `json:"timeSpent"`
}

// UpdateTaskStatusRequest represents a minimal request to change status
type UpdateTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// GetProjectTasks handles GET /api/tasks/project/:projectId
func (h *Handler) GetProjectTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.visibleProject(ctx, c.Param("projectId"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	tasks, err := h.store.Tasks.FindMany(ctx, store.Filter{"project_id": c.Param("projectId")}, "created_at asc")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTaskByID handles GET /api/tasks/:id
func (h *Handler) GetTaskByID(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	task, err := h.store.Tasks.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

/*
*
CreateTask handles POST /api/tasks
Creates a task, notifies its assignee and broadcasts it to the project.
*/
func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}
	dueDate, err := parseOptionalDate("dueDate", req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		ProjectID:   req.ProjectID,
		DueDate:     dueDate,
		Subtasks:    datatypes.JSONSlice[models.Subtask](req.Subtasks),
		Tags:        datatypes.JSONSlice[string](req.Tags),
		Attachments: datatypes.JSONSlice[string](req.Attachments),
		TimeSpent:   req.TimeSpent,
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.visibleProject(ctx, task.ProjectID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.Validation("project", "does not exist")
		}
		h.respondError(c, err)
		return
	}
	if err := h.store.Tasks.Create(ctx, &task); err != nil {
		h.respondError(c, err)
		return
	}

	h.dispatcher.Notify(ctx, notify.TaskCreated(task))
	h.announce(ctx, realtime.EventTaskCreated, task)

	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/:id
// Applies the provided fields; the project reference cannot change.
func (h *Handler) UpdateTask(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	task, err := h.store.Tasks.FindByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.ProjectID != nil && *req.ProjectID != task.ProjectID {
		h.respondError(c, apperr.Validation("project", "cannot be changed"))
		return
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.AssignedTo != nil {
		task.AssignedTo = *req.AssignedTo
	}
	if req.DueDate != nil {
		if task.DueDate, err = parseOptionalDate("dueDate", *req.DueDate); err != nil {
			h.respondError(c, err)
			return
		}
	}
	if req.Subtasks != nil {
		task.Subtasks = datatypes.JSONSlice[models.Subtask](*req.Subtasks)
	}
	if req.Tags != nil {
		task.Tags = datatypes.JSONSlice[string](*req.Tags)
	}
	if req.Attachments != nil {
		task.Attachments = datatypes.JSONSlice[string](*req.Attachments)
	}
	if req.TimeSpent != nil {
		task.TimeSpent = *req.TimeSpent
	}

	task.Normalize()
	if err := task.Validate(); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.Tasks.Save(ctx, &task); err != nil {
		h.respondError(c, err)
		return
	}

	h.announce(ctx, realtime.EventTaskUpdated, task)
	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
// Moves a task to another lane.
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		h.respondError(c, apperr.Validation("status", "must be one of todo, in-progress, done"))
		return
	}

	ctx := c.Request.Context()
	task, err := h.store.Tasks.UpdateByID(ctx, c.Param("id"), map[string]any{"status": req.Status})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.announce(ctx, realtime.EventTaskUpdated, task)
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	ctx := c.Request.Context()
	task, err := h.store.Tasks.FindByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.Tasks.DeleteByID(ctx, task.ID); err != nil {
		h.respondError(c, err)
		return
	}

	h.announce(ctx, realtime.EventTaskDeleted, task)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      task.ID,
	})
}
