package port

import (
	"context"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// TokenRepository manages email verification token records. Raw tokens are
// never stored; lookup happens by hash.
type TokenRepository interface {
	CreateVerification(ctx context.Context, token domain.VerificationToken) error
	GetVerificationByHash(ctx context.Context, hash string) (*domain.VerificationToken, error)
	ConsumeVerification(ctx context.Context, id string) error
}
