package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type busMessage struct {
	Origin    string          `json:"origin"`
	ProjectID string          `json:"projectId"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisBackbone shares relay traffic between instances over one Redis
// pub/sub channel. Each instance skips the messages it sent itself.
type RedisBackbone struct {
	rc         *redis.Client
	channel    string
	origin     string
	logger     *log.Logger
	retryDelay time.Duration

	subscribed     chan struct{}
	subscribedOnce sync.Once
}

func NewRedisBackbone(rc *redis.Client, channel string, logger *log.Logger) *RedisBackbone {
	return &RedisBackbone{
		rc:         rc,
		channel:    channel,
		origin:     uuid.NewString(),
		logger:     logger,
		retryDelay: time.Second,
		subscribed: make(chan struct{}),
	}
}

func (b *RedisBackbone) Publish(ctx context.Context, projectID string, payload []byte) error {
	data, err := json.Marshal(busMessage{Origin: b.origin, ProjectID: projectID, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode bus message: %w", err)
	}
	if err := b.rc.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	return nil
}

// Subscribed is closed once the first subscription is confirmed.
func (b *RedisBackbone) Subscribed() <-chan struct{} {
	return b.subscribed
}

// Run feeds messages from other instances to deliver until ctx is done,
// resubscribing whenever the subscription drops.
func (b *RedisBackbone) Run(ctx context.Context, deliver func(projectID string, payload []byte)) {
	for {
		b.consume(ctx, deliver)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("relay.backbone: subscription closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
	}
}

func (b *RedisBackbone) consume(ctx context.Context, deliver func(projectID string, payload []byte)) {
	sub := b.rc.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			b.logger.WithError(err).Warn("relay.backbone: subscribe")
		}
		return
	}
	b.subscribedOnce.Do(func() { close(b.subscribed) })

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bm busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				b.logger.WithError(err).Warn("relay.backbone: unable to parse message")
				continue
			}
			if bm.Origin == b.origin || bm.ProjectID == "" {
				continue
			}
			deliver(bm.ProjectID, bm.Payload)
		}
	}
}
