package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a shared Redis counter, giving all
// instances of the application one view of each window.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Store backed by the provided client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// Check increments the counter for identifier:endpoint, starting a fresh
// window when the key is absent. The window boundary is enforced by key
// expiry, so a fresh window always begins at count 1.
func (s *RedisStore) Check(ctx context.Context, identifier, endpoint string, maxRequests int, window time.Duration) (Result, error) {
	key := s.prefix + identifier + ":" + endpoint

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	if int(count) > maxRequests {
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return Result{}, fmt.Errorf("ratelimit: ttl: %w", err)
		}
		if ttl < 0 {
			// Key lost its expiry (for example after a failed Expire);
			// reinstate the window rather than deny forever.
			_ = s.client.Expire(ctx, key, window).Err()
			ttl = window
		}
		return Result{Allowed: false, RetryAfter: ceilSeconds(ttl)}, nil
	}
	return Result{Allowed: true, Remaining: maxRequests - int(count)}, nil
}

var _ Store = (*RedisStore)(nil)
