package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/talent-platform-auth/internal/core/port"
)

const defaultRateLimitPrefix = "auth:ratelimit"

// RateLimitRepository counts requests per fixed window in Redis. Each window
// maps to one counter key named after the window's start; the counter expires
// shortly after the window closes so idle clients cost nothing.
type RateLimitRepository struct {
	client *red.Client
	prefix string
}

// NewRateLimitRepository constructs a repository using the provided Redis client.
func NewRateLimitRepository(client *red.Client, prefix string) *RateLimitRepository {
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}
	return &RateLimitRepository{client: client, prefix: prefix}
}

// Increment bumps the counter of the window containing at and returns the new
// count. INCR and EXPIRE run in one pipeline; the extra second of TTL covers
// the gap between them.
func (r *RateLimitRepository) Increment(ctx context.Context, identifier string, window time.Duration, at time.Time) (int64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := r.key(identifier, window, at)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr rate limit counter: %w", err)
	}

	return incr.Val(), nil
}

// key names the counter after the wall-aligned window start, so every node
// observing the same clock agrees on the active bucket.
func (r *RateLimitRepository) key(identifier string, window time.Duration, at time.Time) string {
	windowSeconds := int64(window / time.Second)
	bucket := at.Unix() - at.Unix()%windowSeconds
	return fmt.Sprintf("%s:%s:%d", r.prefix, identifier, bucket)
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
