package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrTimeout is returned when a Redis lock could not be taken before ctx ended
var ErrTimeout = errors.New("lock wait timed out")

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a lock shared by every process using the same Redis database.
// Each lock carries a TTL so a crashed holder cannot block a key forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// RedisOption tunes a Redis locker
type RedisOption func(*Redis)

// WithTTL sets how long an unreleased lock survives
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithPrefix namespaces lock keys
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis connects to redisURL and pings it
func NewRedis(ctx context.Context, redisURL string, opts ...RedisOption) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	r := &Redis{
		client: client,
		ttl:    10 * time.Second,
		retry:  25 * time.Millisecond,
		prefix: "nutritrack:lock:",
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Lock polls SET NX until it wins or ctx ends
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %v", key, ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(k, token) })
	}, nil
}

func (r *Redis) release(k, token string) {
	// Released with a fresh context: the caller's may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseScript.Run(ctx, r.client, []string{k}, token)
}

// Close disconnects from Redis
func (r *Redis) Close() error {
	return r.client.Close()
}
