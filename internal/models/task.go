package models

import (
	"strings"
	"time"

	"project-board-api/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus is the board lane a task sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// Lanes lists the board lanes in display order.
var Lanes = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the three lanes.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Subtask is one checklist entry of a task.
type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a card on a project board. ProjectID is fixed at creation.
type Task struct {
	ID          string                       `json:"id" gorm:"primaryKey"`
	Title       string                       `json:"title" gorm:"not null"`
	Description string                       `json:"description"`
	Status      TaskStatus                   `json:"status" gorm:"not null;default:'todo'"`
	Priority    TaskPriority                 `json:"priority" gorm:"not null;default:'medium'"`
	AssignedTo  string                       `json:"assignedTo,omitempty" gorm:"column:assigned_to;index"`
	ProjectID   string                       `json:"project" gorm:"column:project_id;not null;index"`
	DueDate     *time.Time                   `json:"dueDate,omitempty" gorm:"column:due_date"`
	Subtasks    datatypes.JSONSlice[Subtask] `json:"subtasks"`
	Tags        datatypes.JSONSlice[string]  `json:"tags"`
	Attachments datatypes.JSONSlice[string]  `json:"attachments"`
	TimeSpent   int                          `json:"timeSpent" gorm:"column:time_spent;default:0"`
	CreatedAt   time.Time                    `json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// BeforeCreate assigns an id when the caller did not.
func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Normalize fills defaults and canonicalizes collections in place.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.ProjectID = strings.TrimSpace(t.ProjectID)
	t.AssignedTo = strings.TrimSpace(t.AssignedTo)
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Subtasks == nil {
		t.Subtasks = datatypes.JSONSlice[Subtask]{}
	}
	t.Tags = datatypes.JSONSlice[string](uniqueTrimmed(t.Tags))
	if t.Attachments == nil {
		t.Attachments = datatypes.JSONSlice[string]{}
	}
}

// Validate checks the invariants every persisted task must hold.
func (t *Task) Validate() error {
	if t.Title == "" {
		return apperr.Validation("title", "is required")
	}
	if t.ProjectID == "" {
		return apperr.Validation("project", "is required")
	}
	if !t.Status.Valid() {
		return apperr.Validation("status", "must be one of todo, in-progress, done")
	}
	if !t.Priority.Valid() {
		return apperr.Validation("priority", "must be one of low, medium, high")
	}
	if t.TimeSpent < 0 {
		return apperr.Validation("timeSpent", "must not be negative")
	}
	for _, st := range t.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return apperr.Validation("subtasks", "entries need a title")
		}
	}
	return nil
}

// uniqueTrimmed drops blanks and duplicates, keeping first-seen order.
func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
