package realtime

import (
	"sync"
)

// Client represents a single websocket client connection.
// The actual network conn is managed in the ws handler.
type Client interface {
	ID() string
	// Send queues message without blocking; false means it was dropped.
	Send(message []byte) bool
	Close()
}

// Hub is the group-membership table: which clients watch which project.
// It is mutated only by Join/Leave and read only by Publish.
type Hub struct {
	mu          sync.RWMutex
	groups      map[string]map[Client]struct{}
	memberships map[Client]map[string]struct{}

	// pubMu serializes Publish so every subscriber sees the same order.
	pubMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		groups:      make(map[string]map[Client]struct{}),
		memberships: make(map[Client]map[string]struct{}),
	}
}

// Join adds client to the project's group. Rejoining is a no-op; the
// result reports whether membership changed.
func (h *Hub) Join(client Client, projectID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[projectID][client]; ok {
		return false
	}
	if _, ok := h.groups[projectID]; !ok {
		h.groups[projectID] = make(map[Client]struct{})
	}
	h.groups[projectID][client] = struct{}{}
	if _, ok := h.memberships[client]; !ok {
		h.memberships[client] = make(map[string]struct{})
	}
	h.memberships[client][projectID] = struct{}{}
	return true
}

// LeaveProject removes client from one group.
func (h *Hub) LeaveProject(client Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client, projectID)
}

// Leave removes client from every group and returns how many it left.
func (h *Hub) Leave(client Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	projects := h.memberships[client]
	n := len(projects)
	for projectID := range projects {
		h.remove(client, projectID)
	}
	return n
}

func (h *Hub) remove(client Client, projectID string) {
	if clients, ok := h.groups[projectID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, projectID)
		}
	}
	if projects, ok := h.memberships[client]; ok {
		delete(projects, projectID)
		if len(projects) == 0 {
			delete(h.memberships, client)
		}
	}
}

// Publish hands message to every client in the project's group, the
// publisher included, and returns how many accepted it.
func (h *Hub) Publish(projectID string, message []byte) int {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.groups[projectID] {
		// A failed send is the receiver's loss; its handler cleans it up.
		if c.Send(message) {
			delivered++
		}
	}
	return delivered
}

// GroupSize returns the number of clients joined to a project.
func (h *Hub) GroupSize(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[projectID])
}
