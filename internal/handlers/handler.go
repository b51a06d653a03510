package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"project-board-api/internal/apperr"
	"project-board-api/internal/auth"
	"project-board-api/internal/middleware"
	"project-board-api/internal/models"
	"project-board-api/internal/notify"
	"project-board-api/internal/realtime"
	"project-board-api/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler serves the REST and websocket API.
type Handler struct {
	store      *store.Store
	dispatcher *notify.Dispatcher
	inbox      *notify.Inbox
	relay      *realtime.Relay
	tokens     *auth.Tokens
	logger     *log.Logger
	sendBuffer int
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Store  *store.Store
	Relay  *realtime.Relay
	Tokens *auth.Tokens
	Logger *log.Logger
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

func New(d Deps) *Handler {
	if d.SendBuffer <= 0 {
		d.SendBuffer = 32
	}
	return &Handler{
		store:      d.Store,
		dispatcher: notify.NewDispatcher(d.Store.Notifications, d.Store.Tasks, d.Logger),
		inbox:      notify.NewInbox(d.Store.Notifications),
		relay:      d.Relay,
		tokens:     d.Tokens,
		logger:     d.Logger,
		sendBuffer: d.SendBuffer,
	}
}

// currentUser aborts with 401 when the auth middleware did not run.
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return "", false
	}
	return userID, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// announce broadcasts a task change on its project's group.
func (h *Handler) announce(ctx context.Context, event realtime.Event, task models.Task) {
	env, err := realtime.TaskEnvelope(event, task)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Warn("relay.envelope")
		return
	}
	h.relay.Publish(ctx, env)
}

func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",  // ISO date
		"2 Jan 2006",  // e.g., 30 Oct 2025
		time.RFC3339,  // full RFC3339
		"02 Jan 2006", // zero-padded day
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseOptionalDate maps "" to nil and rejects unparseable input.
func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, ok := parseDateFlexible(value)
	if !ok {
		return nil, apperr.Validation(field, "must be a date (YYYY-MM-DD or RFC3339)")
	}
	return &t, nil
}
