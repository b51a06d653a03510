package models

import (
	"time"

	"project-board-api/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType classifies why a user was notified.
type NotificationType string

const (
	NotificationTaskAssigned        NotificationType = "task_assigned"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationCommentAdded        NotificationType = "comment_added"
	NotificationProjectInvite       NotificationType = "project_invite"
	NotificationDeadlineApproaching NotificationType = "deadline_approaching"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTaskAssigned, NotificationTaskCompleted, NotificationCommentAdded,
		NotificationProjectInvite, NotificationDeadlineApproaching:
		return true
	}
	return false
}

// Notification is an inbox entry for a single recipient. Read only ever
// moves from false to true.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	UserID    string           `json:"user" gorm:"column:user_id;not null;index:idx_notifications_user_read"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	RelatedID string           `json:"relatedId,omitempty" gorm:"column:related_id"`
	Read      bool             `json:"read" gorm:"not null;default:false;index:idx_notifications_user_read"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (n *Notification) Validate() error {
	if n.UserID == "" {
		return apperr.Validation("user", "is required")
	}
	if !n.Type.Valid() {
		return apperr.Validation("type", "is not a known notification type")
	}
	if n.Message == "" {
		return apperr.Validation("message", "is required")
	}
	return nil
}
