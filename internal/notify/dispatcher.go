// Package notify derives inbox notifications from task and comment events
// and serves each user's inbox.
package notify

import (
	"context"
	"errors"
	"fmt"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"
	"project-board-api/internal/store"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "project-board-api/internal/notify"

// EventType names a domain event the dispatcher reacts to.
type EventType string

const (
	EventTaskCreated    EventType = "task.created"
	EventCommentCreated EventType = "comment.created"
)

// Event is a completed write. Task is required for EventTaskCreated; for
// EventCommentCreated it is looked up from Comment.TaskID when nil.
type Event struct {
	Type    EventType
	Task    *models.Task
	Comment *models.Comment
}

func TaskCreated(task models.Task) Event {
	return Event{Type: EventTaskCreated, Task: &task}
}

func CommentCreated(comment models.Comment, task *models.Task) Event {
	return Event{Type: EventCommentCreated, Task: task, Comment: &comment}
}

// DispatchError reports a notification that could not be produced. The
// write that triggered it stands regardless.
type DispatchError struct {
	Event     EventType
	Recipient string
	Err       error
}

func (e *DispatchError) Error() string {
	if e.Recipient == "" {
		return fmt.Sprintf("dispatch %s: %v", e.Event, e.Err)
	}
	return fmt.Sprintf("dispatch %s to %s: %v", e.Event, e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NotificationStore is the part of the gateway the notify package writes to.
type NotificationStore interface {
	Create(ctx context.Context, rec *models.Notification) error
	FindByID(ctx context.Context, id string) (models.Notification, error)
	FindMany(ctx context.Context, filter store.Filter, order string) ([]models.Notification, error)
	Count(ctx context.Context, filter store.Filter) (int64, error)
	UpdateByID(ctx context.Context, id string, patch map[string]any) (models.Notification, error)
	DeleteByID(ctx context.Context, id string) error
}

type TaskFinder interface {
	FindByID(ctx context.Context, id string) (models.Task, error)
}

// Dispatcher persists notifications synchronously inside the request that
// caused them.
type Dispatcher struct {
	notifications NotificationStore
	tasks         TaskFinder
	logger        *log.Logger
}

func NewDispatcher(notifications NotificationStore, tasks TaskFinder, logger *log.Logger) *Dispatcher {
	return &Dispatcher{notifications: notifications, tasks: tasks, logger: logger}
}

// Derive returns the notification ev calls for, or nil when it calls for
// none. It does no I/O.
func Derive(ev Event) *models.Notification {
	task := ev.Task
	if task == nil || task.AssignedTo == "" {
		return nil
	}
	switch ev.Type {
	case EventTaskCreated:
		return &models.Notification{
			UserID:    task.AssignedTo,
			Type:      models.NotificationTaskAssigned,
			Message:   "You have been assigned a new task: " + task.Title,
			RelatedID: task.ID,
		}
	case EventCommentCreated:
		if ev.Comment == nil || ev.Comment.AuthorID == task.AssignedTo {
			return nil
		}
		return &models.Notification{
			UserID:    task.AssignedTo,
			Type:      models.NotificationCommentAdded,
			Message:   "New comment on task: " + task.Title,
			RelatedID: ev.Comment.ID,
		}
	}
	return nil
}

// Dispatch creates the notification ev calls for and returns it, or nil
// when none is due. Errors are *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*models.Notification, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "notify.dispatch",
		trace.WithAttributes(attribute.String("notify.event", string(ev.Type))))
	defer span.End()

	if ev.Type == EventCommentCreated && ev.Task == nil && ev.Comment != nil {
		task, err := d.tasks.FindByID(ctx, ev.Comment.TaskID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			span.SetAttributes(attribute.Bool("notify.fired", false))
			return nil, nil
		case err != nil:
			return nil, fail(span, &DispatchError{Event: ev.Type, Err: err})
		}
		ev.Task = &task
	}

	n := Derive(ev)
	if n == nil {
		span.SetAttributes(attribute.Bool("notify.fired", false))
		return nil, nil
	}
	span.SetAttributes(
		attribute.Bool("notify.fired", true),
		attribute.String("notify.recipient", n.UserID),
		attribute.String("notify.type", string(n.Type)),
	)
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, fail(span, &DispatchError{Event: ev.Type, Recipient: n.UserID, Err: err})
	}

	d.logger.WithFields(log.Fields{
		"event":           ev.Type,
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"type":            n.Type,
	}).Debug("notify.dispatch")
	return n, nil
}

// Notify is Dispatch for request handlers: failures are logged and dropped.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	if _, err := d.Dispatch(ctx, ev); err != nil {
		d.logger.WithError(err).WithField("event", ev.Type).Warn("notify.dispatch.failed")
	}
}

func fail(span trace.Span, err *DispatchError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
