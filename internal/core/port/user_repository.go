package port

import (
	"context"
	"time"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. Emails are unique
// case-insensitively; implementations are expected to normalise on write and
// lookup.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	// MarkEmailVerified flips email_verified and, for a pending account only,
	// promotes the status to active in the same statement. Suspended and
	// deactivated accounts record the verification without a status change.
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, id string, fullName string, phone *string, at time.Time) error
}
