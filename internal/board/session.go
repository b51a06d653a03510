// Package board is the client side of a project board: a local task set
// kept consistent under optimistic local edits and relayed remote changes.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"project-board-api/internal/apperr"
	"project-board-api/internal/models"
	"project-board-api/internal/realtime"
)

// ErrResyncRequired means local state may disagree with the server and
// must be reloaded. Local edits are never rolled back automatically.
var ErrResyncRequired = errors.New("board: resync required")

// MergePolicy decides what happens to updates for tasks the session does
// not hold.
type MergePolicy int

const (
	// UpdateOnly drops updates for unknown task ids.
	UpdateOnly MergePolicy = iota
	// InsertOnMiss adds the task instead.
	InsertOnMiss
)

// Gateway is the persistence side the session talks to.
type Gateway interface {
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
}

// Announcer tells other sessions about a saved edit.
type Announcer interface {
	Announce(ctx context.Context, task models.Task) error
}

type Option func(*Session)

func WithPolicy(p MergePolicy) Option {
	return func(s *Session) { s.policy = p }
}

func WithAnnouncer(a Announcer) Option {
	return func(s *Session) { s.announcer = a }
}

// Session holds one project's tasks. It is safe for concurrent use.
type Session struct {
	projectID string
	policy    MergePolicy
	gateway   Gateway

	mu        sync.RWMutex
	announcer Announcer
	tasks     map[string]models.Task
	order     []string
}

func NewSession(projectID string, gateway Gateway, opts ...Option) *Session {
	s := &Session{
		projectID: projectID,
		gateway:   gateway,
		tasks:     make(map[string]models.Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ProjectID() string { return s.projectID }

// SetAnnouncer replaces the announcer; nil turns announcing off.
func (s *Session) SetAnnouncer(a Announcer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcer = a
}

// Load replaces local state with the gateway's view of the project.
func (s *Session) Load(ctx context.Context) error {
	tasks, err := s.gateway.ListTasks(ctx, s.projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", s.projectID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]models.Task, len(tasks))
	s.order = s.order[:0]
	for _, t := range tasks {
		s.put(t)
	}
	return nil
}

// Resync discards local state, including unsaved optimistic edits.
func (s *Session) Resync(ctx context.Context) error {
	return s.Load(ctx)
}

// ApplyRemote merges a relayed envelope by task id, replacing the whole
// record. It reports whether local state changed. Envelopes for other
// projects are ignored.
func (s *Session) ApplyRemote(env realtime.Envelope) (bool, error) {
	if err := env.Validate(); err != nil {
		return false, err
	}
	if env.ProjectID != s.projectID {
		return false, nil
	}

	if env.Event == realtime.EventTaskDeleted {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.remove(env.ID), nil
	}

	task, err := env.Task()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok && env.Event == realtime.EventTaskUpdated && s.policy == UpdateOnly {
		return false, nil
	}
	s.put(task)
	return true, nil
}

// Task returns the local copy of one task.
func (s *Session) Task(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Tasks returns every task in first-seen order.
func (s *Session) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

// Lanes groups tasks by status. Every lane is present.
func (s *Session) Lanes() map[models.TaskStatus][]models.Task {
	lanes := make(map[models.TaskStatus][]models.Task, len(models.Lanes))
	for _, lane := range models.Lanes {
		lanes[lane] = []models.Task{}
	}
	for _, t := range s.Tasks() {
		lanes[t.Status] = append(lanes[t.Status], t)
	}
	return lanes
}

// MoveTask drags a task to another lane.
func (s *Session) MoveTask(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, apperr.Validation("status", "must be one of todo, in-progress, done")
	}
	return s.EditTask(ctx, id, func(t *models.Task) { t.Status = status })
}

// EditTask applies edit locally, saves it and announces the saved record.
// When the save fails the local edit stays in place and the error wraps
// ErrResyncRequired.
func (s *Session) EditTask(ctx context.Context, id string, edit func(*models.Task)) (models.Task, error) {
	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("task %q: %w", id, apperr.ErrNotFound)
	}
	edit(&current)
	current.ID = id
	current.ProjectID = s.projectID
	s.tasks[id] = current
	announcer := s.announcer
	s.mu.Unlock()

	saved, err := s.gateway.UpdateTask(ctx, current)
	if err != nil {
		return current, fmt.Errorf("%w: save task %s: %v", ErrResyncRequired, id, err)
	}

	s.mu.Lock()
	if _, ok := s.tasks[id]; ok {
		s.tasks[id] = saved
	}
	s.mu.Unlock()

	if announcer != nil {
		// Relay failures leave the session in non-real-time mode only.
		_ = announcer.Announce(ctx, saved)
	}
	return saved, nil
}

func (s *Session) put(t models.Task) {
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
}

func (s *Session) remove(id string) bool {
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
