package port

import (
	"context"
	"time"
)

// RateLimitStore defines the persistence operation required to enforce
// fixed-window limits. Increment atomically bumps the counter for the window
// containing at and returns the new count; the key's TTL is bounded by the
// window length so buckets reclaim themselves.
type RateLimitStore interface {
	Increment(ctx context.Context, identifier string, window time.Duration, at time.Time) (int64, error)
}
