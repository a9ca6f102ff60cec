package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so
// an expired lock taken over by another owner is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type RedisConfig struct {
	Prefix       string
	TTL          time.Duration
	RetryBackoff time.Duration
}

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client redisClient
	cfg    RedisConfig
}

func NewRedisLocker(client redisClient, cfg RedisConfig) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 25 * time.Millisecond
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:"
	}
	return &RedisLocker{client: client, cfg: cfg}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Release, error) {
	redisKey := l.cfg.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.RetryBackoff)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
			if errors.Is(err, redis.Nil) {
				err = nil
			}
		})
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
