package models

import (
	"strings"
	"time"

	"project-board-api/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a note left by a user on a task.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"not null"`
	AuthorID  string    `json:"author" gorm:"column:author_id;not null"`
	TaskID    string    `json:"task" gorm:"column:task_id;not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return apperr.Validation("text", "is required")
	}
	if c.TaskID == "" {
		return apperr.Validation("task", "is required")
	}
	if c.AuthorID == "" {
		return apperr.Validation("author", "is required")
	}
	return nil
}
