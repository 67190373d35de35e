package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

type recordingPublisher struct {
	events []domain.AuthEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.AuthEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestAuthMetricsCountsAndForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	next := &recordingPublisher{}

	metrics, err := NewAuthMetrics(next, reg)
	if err != nil {
		t.Fatalf("NewAuthMetrics returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := metrics.Publish(context.Background(), domain.AuthEvent{Kind: domain.AuthEventUserLogin}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}
	if err := metrics.Publish(context.Background(), domain.AuthEvent{Kind: domain.AuthEventTokenRotated}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(next.events) != 4 {
		t.Fatalf("expected 4 forwarded events, got %d", len(next.events))
	}

	logins := testutil.ToFloat64(metrics.events.WithLabelValues(string(domain.AuthEventUserLogin)))
	if logins != 3 {
		t.Fatalf("expected 3 login events counted, got %v", logins)
	}

	rotations := testutil.ToFloat64(metrics.events.WithLabelValues(string(domain.AuthEventTokenRotated)))
	if rotations != 1 {
		t.Fatalf("expected 1 rotation event counted, got %v", rotations)
	}
}

func TestAuthMetricsNilNext(t *testing.T) {
	reg := prometheus.NewRegistry()

	metrics, err := NewAuthMetrics(nil, reg)
	if err != nil {
		t.Fatalf("NewAuthMetrics returned error: %v", err)
	}

	if err := metrics.Publish(context.Background(), domain.AuthEvent{Kind: domain.AuthEventSessionRevoked}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
}

func TestAuthMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewAuthMetrics(nil, reg)
	if err != nil {
		t.Fatalf("first registration returned error: %v", err)
	}

	second, err := NewAuthMetrics(nil, reg)
	if err != nil {
		t.Fatalf("second registration returned error: %v", err)
	}

	if first.events != second.events {
		t.Fatal("expected duplicate registration to reuse the existing collector")
	}
}
