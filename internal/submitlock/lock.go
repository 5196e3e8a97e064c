// Package submitlock keeps a mutating request from running twice at once.
// The first request for a user, action and entity takes a Redis key; a
// second one arriving while it is held is turned away.
package submitlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "clinic:submit:"

var ErrNotOwner = errors.New("lock not owned by this request")

// releaseScript deletes the key only while it still holds our value, so an
// expired lock taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{client: client, ttl: ttl, log: logger}
}

// Connect parses cfg.RedisURL and checks the server answers.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TryLock takes key for the configured TTL. It returns the token needed to
// release it, or ok=false if someone else holds it.
func (l *Locker) TryLock(ctx context.Context, key string) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, keyPrefix+key, token, l.ttl).Result()
	if err != nil {
		l.log.Error("failed to take submit lock", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("take lock: %w", err)
	}
	if !ok {
		l.log.Info("submit lock busy", zap.String("key", key))
		return "", false, nil
	}
	return token, true, nil
}

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, token).Int()
	if err != nil {
		l.log.Error("failed to release submit lock", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("release lock: %w", err)
	}
	if n == 0 {
		l.log.Warn("submit lock expired before release", zap.String("key", key))
		return ErrNotOwner
	}
	return nil
}
