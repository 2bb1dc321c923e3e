package locks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisConfig tunes the Redis backed locker.
type RedisConfig struct {
	Prefix string
	// TTL bounds how long a crashed holder can keep a key.
	TTL time.Duration
	// Wait bounds how long Lock retries before giving up.
	Wait time.Duration
	// Retry is the pause between acquisition attempts.
	Retry time.Duration
}

// RedisLocker implements Locker with SET NX PX and a token checked release,
// so several scheduler instances can share one lock space.
type RedisLocker struct {
	client redis.Cmdable
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedisLocker wraps a connected client.
func NewRedisLocker(client redis.Cmdable, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "scheduler:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 25 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger.With(slog.String("component", "redis_locker"))}
}

// Lock acquires every key or none.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	waitCtx, cancel := withWait(ctx, l.cfg.Wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		name := l.cfg.Prefix + key
		if err := l.acquire(waitCtx, name, token); err != nil {
			l.release(held, token)
			if waitCtx.Err() != nil {
				return nil, waitErr(ctx, waitCtx)
			}
			return nil, err
		}
		held = append(held, name)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, name, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, name, token, l.cfg.TTL).Result()
		if err != nil {
			return fmt.Errorf("locks: set %s: %w", name, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.Retry):
		}
	}
}

// release runs on a fresh context so an expired request still frees its keys.
func (l *RedisLocker) release(names []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(names) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{names[i]}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", slog.String("key", names[i]), slog.Any("error", err))
		}
	}
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("locks: connect to redis: %w", err)
	}
	return client, nil
}
