package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrRelayUnavailable marks a failure to reach the broadcast backbone.
var ErrRelayUnavailable = errors.New("relay unavailable")

const (
	outboxSize     = 256
	forwardTimeout = 2 * time.Second
)

// Backbone forwards locally published envelopes to other server instances.
type Backbone interface {
	Publish(ctx context.Context, projectID string, payload []byte) error
}

// Relay is the only entry point to the hub for the rest of the server.
// Publishing is fire-and-forget: nothing is queued, retried or reported back.
type Relay struct {
	hub      *Hub
	backbone Backbone
	outbox   chan outbound
	logger   *log.Logger
}

type outbound struct {
	projectID string
	payload   []byte
	entry     *log.Entry
}

func NewRelay(hub *Hub, logger *log.Logger) *Relay {
	return &Relay{hub: hub, logger: logger}
}

// SetBackbone enables cross-instance fan-out. Call before serving, and run
// Forward to drain the outgoing queue.
func (r *Relay) SetBackbone(b Backbone) {
	r.backbone = b
	r.outbox = make(chan outbound, outboxSize)
}

// Forward hands queued envelopes to the backbone in publish order until ctx
// is done. Each send gets forwardTimeout, independent of the request that
// published it.
func (r *Relay) Forward(ctx context.Context) {
	if r.backbone == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.outbox:
			sendCtx, cancel := context.WithTimeout(ctx, forwardTimeout)
			err := r.backbone.Publish(sendCtx, msg.projectID, msg.payload)
			cancel()
			if err != nil {
				msg.entry.WithError(err).Warn("relay.backbone.publish")
			}
		}
	}
}

func (r *Relay) Join(client Client, projectID string) {
	if r.hub.Join(client, projectID) {
		r.logger.WithFields(log.Fields{"client_id": client.ID(), "project_id": projectID}).Debug("relay.join")
	}
}

func (r *Relay) LeaveProject(client Client, projectID string) {
	r.hub.LeaveProject(client, projectID)
}

// Leave must run on connection teardown.
func (r *Relay) Leave(client Client) {
	n := r.hub.Leave(client)
	r.logger.WithFields(log.Fields{"client_id": client.ID(), "groups": n}).Debug("relay.leave")
}

// Publish broadcasts env to its project's group here and, when a backbone
// is set, queues it for every other instance. It never waits on the
// backbone; a full queue drops the message. Failures are logged and
// swallowed.
func (r *Relay) Publish(_ context.Context, env Envelope) {
	entry := r.logger.WithFields(log.Fields{"project_id": env.ProjectID, "event": env.Event, "id": env.ID})
	if err := env.Validate(); err != nil {
		entry.WithError(err).Warn("relay.publish.rejected")
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		entry.WithError(err).Warn("relay.publish.encode")
		return
	}

	delivered := r.hub.Publish(env.ProjectID, payload)
	entry.WithField("delivered", delivered).Debug("relay.publish")

	if r.backbone == nil {
		return
	}
	select {
	case r.outbox <- outbound{projectID: env.ProjectID, payload: payload, entry: entry}:
	default:
		entry.WithError(fmt.Errorf("%w: backbone queue full", ErrRelayUnavailable)).Warn("relay.backbone.publish")
	}
}

// Deliver fans out a payload that arrived from another instance. It never
// touches the backbone, so messages cannot loop.
func (r *Relay) Deliver(projectID string, payload []byte) {
	r.hub.Publish(projectID, payload)
}

// GroupSize reports how many local clients watch a project.
func (r *Relay) GroupSize(projectID string) int {
	return r.hub.GroupSize(projectID)
}
