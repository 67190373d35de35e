package redis

import (
	"context"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/talent-platform-auth/internal/core/port"
)

const defaultBlacklistPrefix = "auth:blacklist"

// BlacklistRepository stores revoked token ids in Redis. Entries carry a TTL
// equal to the remaining token lifetime so the set never outgrows the live
// token population.
type BlacklistRepository struct {
	client *red.Client
	prefix string
}

// NewBlacklistRepository wires Redis storage for revoked token ids.
func NewBlacklistRepository(client *red.Client, prefix string) *BlacklistRepository {
	if prefix == "" {
		prefix = defaultBlacklistPrefix
	}
	return &BlacklistRepository{client: client, prefix: prefix}
}

// Add records the token id as revoked. SET NX keeps the first revocation's
// reason and TTL; revoking an already revoked id is a no-op.
func (r *BlacklistRepository) Add(ctx context.Context, tokenID, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired on its own; nothing to deny.
		return nil
	}

	if err := r.client.SetNX(ctx, r.key(tokenID), reason, ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx blacklist entry: %w", err)
	}

	return nil
}

// Contains reports whether the token id has been revoked.
func (r *BlacklistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	count, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists blacklist entry: %w", err)
	}

	return count > 0, nil
}

func (r *BlacklistRepository) key(tokenID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, tokenID)
}

var _ port.Blacklist = (*BlacklistRepository)(nil)
