package models

import (
	"strings"
	"time"

	"project-board-api/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on-hold"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// DefaultProjectColor is applied when a project is created without a color.
const DefaultProjectColor = "#667eea"

// Project groups tasks under one board. The owner is not required to be
// listed in Members.
type Project struct {
	ID          string                      `json:"id" gorm:"primaryKey"`
	Name        string                      `json:"name" gorm:"not null"`
	Description string                      `json:"description"`
	OwnerID     string                      `json:"owner" gorm:"column:owner_id;not null;index"`
	Members     datatypes.JSONSlice[string] `json:"members"`
	Color       string                      `json:"color"`
	Deadline    *time.Time                  `json:"deadline,omitempty"`
	Budget      *float64                    `json:"budget,omitempty"`
	Progress    int                         `json:"progress" gorm:"default:0"`
	Status      ProjectStatus               `json:"status" gorm:"not null;default:'active'"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// TableName specifies the table name for Project Model
func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Normalize fills defaults in place.
func (p *Project) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if p.Color == "" {
		p.Color = DefaultProjectColor
	}
	p.Members = datatypes.JSONSlice[string](uniqueTrimmed(p.Members))
}

func (p *Project) Validate() error {
	if p.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if p.OwnerID == "" {
		return apperr.Validation("owner", "is required")
	}
	if p.Progress < 0 || p.Progress > 100 {
		return apperr.Validation("progress", "must be between 0 and 100")
	}
	if !p.Status.Valid() {
		return apperr.Validation("status", "must be one of active, completed, on-hold")
	}
	if p.Budget != nil && *p.Budget < 0 {
		return apperr.Validation("budget", "must not be negative")
	}
	return nil
}

// HasMember reports whether userID owns or belongs to the project.
func (p *Project) HasMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}
