package domain

import "time"

// TokenType distinguishes the two credential kinds minted by the codec.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// BlacklistEntry records a revoked token id. ExpiresAt is copied from the
// token's own expiry so the entry can be garbage-collected by the store's TTL
// once the token would have expired naturally anyway.
type BlacklistEntry struct {
	TokenID   string
	Reason    string
	ExpiresAt time.Time
}

// VerificationToken is a single-use email verification artifact, stored as a
// hash of the raw token delivered out of band.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsExpired reports whether the verification token can still be redeemed.
func (t VerificationToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// Consume marks the verification token as used.
// Returns true when the token transitions from unused to used.
func (t *VerificationToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}
