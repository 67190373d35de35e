package port

import (
	"context"
	"time"
)

// Blacklist stores revoked token ids until their natural expiry. Add is
// insert-if-absent and idempotent: re-revoking an already revoked token id is
// not an error.
type Blacklist interface {
	Add(ctx context.Context, tokenID, reason string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}
