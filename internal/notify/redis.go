package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/models"
)

const DefaultChannel = "dormlink:notifications"

// Deliverer is the local side of the relay. *Hub implements it.
type Deliverer interface {
	Deliver(n models.Notification)
}

type envelope struct {
	Origin       string              `json:"origin"`
	Notification models.Notification `json:"notification"`
}

// RedisRelay fans notifications out to every server instance over Redis
// pub/sub. Each instance tags what it publishes with its own origin id and
// ignores its own echoes, since it already delivered those locally.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

func NewRedisRelay(client *redis.Client, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger.Named("relay"),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(envelope{Origin: r.origin, Notification: n})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Run subscribes to the channel and hands foreign notifications to local.
// It blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context, local Deliverer) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("relay subscribed", zap.String("channel", r.channel), zap.String("origin", r.origin))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("dropping malformed relay message", zap.Error(err))
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			local.Deliver(env.Notification)
		}
	}
}
