package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSubscriberConfig configures the pub/sub push delivery.
type RedisSubscriberConfig struct {
	Addr     string
	Password string
	DB       int
	// Channel the push service publishes device messages to
	Channel string
}

// RedisSubscriber receives pushes published on a Redis channel.
type RedisSubscriber struct {
	client  *redis.Client
	channel string
	handler IPushMessageHandler
	logger  *zap.Logger
}

// NewRedisSubscriber connects to Redis and verifies the connection.
func NewRedisSubscriber(ctx context.Context, cfg *RedisSubscriberConfig, handler IPushMessageHandler, logger *zap.Logger) (*RedisSubscriber, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisSubscriberWithClient(client, cfg.Channel, handler, logger), nil
}

// NewRedisSubscriberWithClient creates a subscriber on an existing client.
func NewRedisSubscriberWithClient(client *redis.Client, channel string, handler IPushMessageHandler, logger *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		client:  client,
		channel: channel,
		handler: handler,
		logger:  logger,
	}
}

// Run delivers pushes until ctx is cancelled. Malformed payloads are logged and skipped.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// block until redis confirmed the subscription
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Sugar().Infow("Subscribed to push channel", zap.String("channel", s.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-messages:
			if !ok {
				return nil
			}
			msg, err := ParsePushMessage([]byte(m.Payload))
			if err != nil {
				s.logger.Sugar().Warnw("Skipping push from redis",
					zap.String("channel", m.Channel),
					zap.Error(err),
				)
				continue
			}
			s.handler.HandlePushMessage(msg)
		}
	}
}

// Close closes the redis client.
func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}
