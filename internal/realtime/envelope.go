package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"project-board-api/internal/models"
)

// SchemaVersion is the version stamped on every broadcast envelope.
const SchemaVersion = 1

// KindTask tags envelopes whose data is a full task record.
const KindTask = "task"

// Event names a broadcast.
type Event string

const (
	EventTaskUpdated Event = "taskUpdated"
	EventTaskCreated Event = "taskCreated"
	EventTaskDeleted Event = "taskDeleted"
)

// ErrInvalidEnvelope is returned for envelopes receivers must not merge.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope is the fixed broadcast schema. Data holds the full record for
// created/updated events and is empty for deletions.
type Envelope struct {
	Version   int             `json:"version"`
	Event     Event           `json:"event"`
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// TaskEnvelope wraps a task for broadcast on its project's group.
func TaskEnvelope(event Event, task models.Task) (Envelope, error) {
	env := Envelope{
		Version:   SchemaVersion,
		Event:     event,
		Kind:      KindTask,
		ID:        task.ID,
		ProjectID: task.ProjectID,
	}
	if event != EventTaskDeleted {
		data, err := json.Marshal(task)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode task: %w", err)
		}
		env.Data = data
	}
	return env, env.Validate()
}

// ParseEnvelope decodes and validates raw bytes.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, env.Validate()
}

func (e Envelope) Validate() error {
	switch {
	case e.Version != SchemaVersion:
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, e.Version)
	case e.Kind != KindTask:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidEnvelope, e.Kind)
	case e.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidEnvelope)
	case e.ProjectID == "":
		return fmt.Errorf("%w: missing projectId", ErrInvalidEnvelope)
	}
	switch e.Event {
	case EventTaskCreated, EventTaskUpdated:
		if len(e.Data) == 0 {
			return fmt.Errorf("%w: %s without data", ErrInvalidEnvelope, e.Event)
		}
	case EventTaskDeleted:
	default:
		return fmt.Errorf("%w: unknown event %q", ErrInvalidEnvelope, e.Event)
	}
	return nil
}

// Task decodes the record carried by the envelope. The record must agree
// with the envelope's id and project.
func (e Envelope) Task() (models.Task, error) {
	var task models.Task
	if len(e.Data) == 0 {
		return task, fmt.Errorf("%w: no data", ErrInvalidEnvelope)
	}
	if err := json.Unmarshal(e.Data, &task); err != nil {
		return task, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if task.ID != e.ID || task.ProjectID != e.ProjectID {
		return task, fmt.Errorf("%w: data does not match envelope", ErrInvalidEnvelope)
	}
	return task, nil
}
