package port

import (
	"context"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// EventPublisher publishes authentication lifecycle events to the message bus.
// Publishing is advisory; callers treat failures as log-and-continue.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AuthEvent) error
}
