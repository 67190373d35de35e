package port

import (
	"context"
	"time"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// SessionStore deals with session storage. Sessions are the durable record of
// device logins; the store is the only owner of session rows.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, sessionID string) (*domain.Session, error)
	// SwapRefreshToken atomically replaces the session's current refresh
	// token id and advances last_used_at, but only when the stored id still
	// equals oldTokenID. Returns false when the compare failed, which means
	// a concurrent rotation already won.
	SwapRefreshToken(ctx context.Context, sessionID, oldTokenID, newTokenID string, at time.Time) (bool, error)
	Deactivate(ctx context.Context, sessionID string) error
	// DeactivateAll marks every active session of the user inactive and
	// returns the refresh token ids that were current on those sessions so
	// the caller can blacklist each of them.
	DeactivateAll(ctx context.Context, userID string) ([]string, error)
	ListActiveByUser(ctx context.Context, userID string) ([]domain.Session, error)
}
