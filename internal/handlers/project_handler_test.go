package handlers

import (
	"net/http"
	"testing"

	"project-board-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCreateProject_Defaults(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, "u-1", map[string]any{"name": "Launch", "members": []string{"u-2"}})
	require.Equal(t, "u-1", project.OwnerID)
	require.Equal(t, models.ProjectActive, project.Status)
	require.Zero(t, project.Progress)
	require.Equal(t, models.DefaultProjectColor, project.Color)

	w := env.do(t, http.MethodPost, "/api/projects", "u-1", map[string]any{"description": "no name"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProjects_OwnerOrMember(t *testing.T) {
	env := newTestEnv(t)
	shared := env.createProject(t, "u-1", map[string]any{"name": "Shared", "members": []string{"u-2"}})
	env.createProject(t, "u-1", map[string]any{"name": "Private"})

	w := env.do(t, http.MethodGet, "/api/projects", "u-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := decode[[]models.Project](t, w)
	require.Len(t, projects, 1)
	require.Equal(t, shared.ID, projects[0].ID)

	w = env.do(t, http.MethodGet, "/api/projects", "u-1", nil)
	require.Len(t, decode[[]models.Project](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/projects/"+shared.ID, "u-3", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, "u-1", map[string]any{"name": "Launch", "members": []string{"u-2"}})

	w := env.do(t, http.MethodPut, "/api/projects/"+project.ID, "u-2", map[string]any{"progress": 40, "status": "on-hold"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Project](t, w)
	require.Equal(t, 40, updated.Progress)
	require.Equal(t, models.ProjectOnHold, updated.Status)
	require.Equal(t, "Launch", updated.Name)

	tests := map[string]map[string]any{
		"owner change":   {"owner": "u-2"},
		"progress range": {"progress": 101},
		"status":         {"status": "paused"},
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, "/api/projects/"+project.ID, "u-1", payload)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestDeleteProject_OwnerOnlyWithoutCascade(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject(t, "u-1", map[string]any{"name": "Launch", "members": []string{"u-2"}})
	task := env.createTask(t, "u-1", map[string]any{"title": "orphan", "project": project.ID})

	w := env.do(t, http.MethodDelete, "/api/projects/"+project.ID, "u-2", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/projects/"+project.ID, "u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/tasks/"+task.ID, "u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
