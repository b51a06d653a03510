package notify

import (
	"context"
	"testing"
	"time"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestInbox_ListNewestFirstAndUnreadCount(t *testing.T) {
	s := setupStore(t)
	inbox := NewInbox(s.Notifications)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, msg := range []string{"first", "second", "third"} {
		n := models.Notification{UserID: "u1", Type: models.NotificationProjectInvite, Message: msg, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Notifications.Create(ctx, &n))
	}
	other := models.Notification{UserID: "u2", Type: models.NotificationProjectInvite, Message: "not yours"}
	require.NoError(t, s.Notifications.Create(ctx, &other))

	list, err := inbox.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "third", list[0].Message)
	require.Equal(t, "first", list[2].Message)

	unread, err := inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 3, unread)

	_, err = inbox.MarkRead(ctx, "u1", list[0].ID)
	require.NoError(t, err)
	unread, err = inbox.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)
}

func TestInbox_MarkReadIsIdempotent(t *testing.T) {
	s := setupStore(t)
	inbox := NewInbox(s.Notifications)
	ctx := context.Background()
	n := models.Notification{UserID: "u1", Type: models.NotificationTaskAssigned, Message: "m"}
	require.NoError(t, s.Notifications.Create(ctx, &n))

	once, err := inbox.MarkRead(ctx, "u1", n.ID)
	require.NoError(t, err)
	require.True(t, once.Read)

	twice, err := inbox.MarkRead(ctx, "u1", n.ID)
	require.NoError(t, err)
	require.True(t, twice.Read)
	require.Equal(t, once.ID, twice.ID)
	require.Equal(t, once.Message, twice.Message)

	count, err := s.Notifications.Count(ctx, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestInbox_ScopedToRecipient(t *testing.T) {
	s := setupStore(t)
	inbox := NewInbox(s.Notifications)
	ctx := context.Background()
	n := models.Notification{UserID: "u1", Type: models.NotificationTaskAssigned, Message: "m"}
	require.NoError(t, s.Notifications.Create(ctx, &n))

	_, err := inbox.MarkRead(ctx, "intruder", n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, inbox.Delete(ctx, "intruder", n.ID), apperr.ErrNotFound)

	_, err = inbox.MarkRead(ctx, "u1", "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, inbox.Delete(ctx, "u1", n.ID))
	list, err := inbox.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)
}
