package handlers

import (
	"context"
	"fmt"
	"net/http"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// CreateProjectRequest represents the request payload for creating a project
type CreateProjectRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Members     []string             `json:"members"`
	Color       string               `json:"color"`
	Deadline    string               `json:"deadline"`
	Budget      *float64             `json:"budget"`
	Status      models.ProjectStatus `json:"status"`
}

// UpdateProjectRequest represents the request payload for updating a project.
// Owner is accepted only to reject changes to it.
type UpdateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Owner       *string               `json:"owner"`
	Members     *[]string             `json:"members"`
	Color       *string               `json:"color"`
	Deadline    *string               `json:"deadline"`
	Budget      *float64              `json:"budget"`
	Progress    *int                  `json:"progress"`
	Status      *models.ProjectStatus `json:"status"`
}

// GetProjects handles GET /api/projects
// Returns projects the caller owns or is a member of.
func (h *Handler) GetProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projects, err := h.store.ProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	project, err := h.visibleProject(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// CreateProject handles POST /api/projects
// The caller becomes the owner.
func (h *Handler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deadline, err := parseOptionalDate("deadline", req.Deadline)
	if err != nil {
		h.respondError(c, err)
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		Members:     datatypes.JSONSlice[string](req.Members),
		Color:       req.Color,
		Deadline:    deadline,
		Budget:      req.Budget,
		Status:      req.Status,
	}
	project.Normalize()
	if err := project.Validate(); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.Projects.Create(c.Request.Context(), &project); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	project, err := h.visibleProject(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Owner != nil && *req.Owner != project.OwnerID {
		h.respondError(c, apperr.Validation("owner", "cannot be changed"))
		return
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Members != nil {
		project.Members = datatypes.JSONSlice[string](*req.Members)
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	if req.Deadline != nil {
		if project.Deadline, err = parseOptionalDate("deadline", *req.Deadline); err != nil {
			h.respondError(c, err)
			return
		}
	}
	if req.Budget != nil {
		project.Budget = req.Budget
	}
	if req.Progress != nil {
		project.Progress = *req.Progress
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	project.Normalize()
	if err := project.Validate(); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.Projects.Save(c.Request.Context(), &project); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
// Only the owner may delete. Tasks and comments of the project are kept.
func (h *Handler) DeleteProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	project, err := h.store.Projects.FindByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if project.OwnerID != userID {
		h.respondError(c, fmt.Errorf("only the owner can delete project %q: %w", id, apperr.ErrForbidden))
		return
	}
	if err := h.store.Projects.DeleteByID(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
		"id":      id,
	})
}

// GetProjectStats handles GET /api/projects/:id/stats
// Returns counts of the project's tasks per lane.
func (h *Handler) GetProjectStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	project, err := h.visibleProject(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	counts, err := h.store.LaneCounts(c.Request.Context(), project.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"todo":       counts[models.StatusTodo],
		"inProgress": counts[models.StatusInProgress],
		"done":       counts[models.StatusDone],
		"total":      total,
	})
}

// visibleProject loads a project the user owns or belongs to. Everything
// scoped to a project id (reads, task listing, task creation, relay groups)
// goes through it.
func (h *Handler) visibleProject(ctx context.Context, id, userID string) (models.Project, error) {
	project, err := h.store.Projects.FindByID(ctx, id)
	if err != nil {
		return project, err
	}
	if !project.HasMember(userID) {
		return project, fmt.Errorf("project %q: %w", id, apperr.ErrForbidden)
	}
	return project, nil
}
