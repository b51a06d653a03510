package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"

	"github.com/tidwall/gjson"
)

// HTTPGateway talks to the REST API with a bearer token.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPGateway(baseURL, token string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// taskBody is the writable part of a task as the API accepts it.
type taskBody struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AssignedTo  string              `json:"assignedTo"`
	ProjectID   string              `json:"project"`
	DueDate     string              `json:"dueDate"`
	Subtasks    []models.Subtask    `json:"subtasks"`
	Tags        []string            `json:"tags"`
	Attachments []string            `json:"attachments"`
	TimeSpent   int                 `json:"timeSpent"`
}

func bodyOf(t models.Task) taskBody {
	b := taskBody{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssignedTo:  t.AssignedTo,
		ProjectID:   t.ProjectID,
		Subtasks:    t.Subtasks,
		Tags:        t.Tags,
		Attachments: t.Attachments,
		TimeSpent:   t.TimeSpent,
	}
	if t.DueDate != nil {
		b.DueDate = t.DueDate.Format(time.RFC3339)
	}
	return b
}

func (g *HTTPGateway) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	err := g.do(ctx, http.MethodGet, "/api/tasks/project/"+url.PathEscape(projectID), nil, &tasks)
	return tasks, err
}

func (g *HTTPGateway) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	var created models.Task
	err := g.do(ctx, http.MethodPost, "/api/tasks", bodyOf(task), &created)
	return created, err
}

func (g *HTTPGateway) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	var saved models.Task
	err := g.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(task.ID), bodyOf(task), &saved)
	return saved, err
}

// do sends in (if any) as JSON and decodes a 2xx response into out. Error
// responses map to apperr kinds by status.
func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := gjson.GetBytes(raw, "error").String()
		if msg == "" {
			msg = resp.Status
		}
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return apperr.Validation("", msg)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", msg, apperr.ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", msg, apperr.ErrForbidden)
		}
		return fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
