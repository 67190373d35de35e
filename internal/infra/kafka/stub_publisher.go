package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured, typically in development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *StubPublisher) Publish(_ context.Context, event domain.AuthEvent) error {
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", string(event.Kind)),
		zap.String("user_id", event.UserID),
		zap.String("session_id", event.SessionID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", event.Details),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
