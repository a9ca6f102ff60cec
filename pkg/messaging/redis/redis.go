package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/healthsync/healthsync-api/pkg/messaging"
)

type RedisBroker struct {
	client redis.UniversalClient
	prefix string
	logger *zerolog.Logger
}

type Config struct {
	URL           string
	ChannelPrefix string
	MaxRetries    int
	RetryBackoff  time.Duration
	PoolSize      int
	MinIdleConns  int
}

// NewClient parses cfg.URL and applies the pool settings.
func NewClient(ctx context.Context, config Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisBroker publishes on Redis pub/sub channels. The client is
// shared with other components and is not closed by Close.
func NewRedisBroker(client redis.UniversalClient, prefix string, logger *zerolog.Logger) messaging.Broker {
	return &RedisBroker{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := b.client.Publish(ctx, b.prefix+channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	b.logger.Debug().Str("channel", b.prefix+channel).Msg("event published")
	return nil
}

func (b *RedisBroker) Close() error {
	return nil
}
