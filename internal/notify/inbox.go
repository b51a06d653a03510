package notify

import (
	"context"
	"fmt"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"
	"project-board-api/internal/store"
)

// Inbox is the recipient's view of their notifications. Other users'
// notifications are reported as not found.
type Inbox struct {
	notifications NotificationStore
}

func NewInbox(notifications NotificationStore) *Inbox {
	return &Inbox{notifications: notifications}
}

// List returns the user's notifications, newest first.
func (i *Inbox) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return i.notifications.FindMany(ctx, store.Filter{"user_id": userID}, "created_at desc")
}

// UnreadCount is derived from the records on every call.
func (i *Inbox) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return i.notifications.Count(ctx, store.Filter{"user_id": userID, "read": false})
}

// MarkRead flips read to true. Marking an already read notification
// returns it unchanged without writing.
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) (models.Notification, error) {
	n, err := i.owned(ctx, userID, id)
	if err != nil {
		return n, err
	}
	if n.Read {
		return n, nil
	}
	return i.notifications.UpdateByID(ctx, id, map[string]any{"read": true})
}

func (i *Inbox) Delete(ctx context.Context, userID, id string) error {
	if _, err := i.owned(ctx, userID, id); err != nil {
		return err
	}
	return i.notifications.DeleteByID(ctx, id)
}

func (i *Inbox) owned(ctx context.Context, userID, id string) (models.Notification, error) {
	n, err := i.notifications.FindByID(ctx, id)
	if err != nil {
		return n, err
	}
	if n.UserID != userID {
		return models.Notification{}, fmt.Errorf("notification %q: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}
