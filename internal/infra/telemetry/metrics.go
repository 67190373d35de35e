package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
)

// AuthMetrics counts authentication lifecycle events by kind. It decorates a
// port.EventPublisher: every event that flows to the bus is also counted, so
// logins, rotations, and revocations surface on /metrics without extra hooks
// in the services.
type AuthMetrics struct {
	next   port.EventPublisher
	events *prometheus.CounterVec
}

// NewAuthMetrics registers the event counter and wraps next. Passing a nil
// registerer uses the default registry.
func NewAuthMetrics(next port.EventPublisher, reg prometheus.Registerer) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "events_total",
		Help:      "Authentication lifecycle events by kind.",
	}, []string{"kind"})

	if err := reg.Register(events); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			events = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &AuthMetrics{next: next, events: events}, nil
}

// Publish counts the event and forwards it to the wrapped publisher.
func (m *AuthMetrics) Publish(ctx context.Context, event domain.AuthEvent) error {
	m.events.WithLabelValues(string(event.Kind)).Inc()
	if m.next == nil {
		return nil
	}
	return m.next.Publish(ctx, event)
}

var _ port.EventPublisher = (*AuthMetrics)(nil)
