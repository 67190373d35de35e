package domain

import "time"

// AuthEventKind enumerates the lifecycle events published to the event bus.
type AuthEventKind string

const (
	AuthEventUserRegistered AuthEventKind = "user.registered"
	AuthEventUserLogin      AuthEventKind = "user.login"
	AuthEventTokenRotated   AuthEventKind = "token.rotated"
	AuthEventSessionRevoked AuthEventKind = "session.revoked"
)

// AuthEvent captures an authentication lifecycle change for downstream
// consumers (audit, analytics). Events are advisory: delivery is
// fire-and-forget and never gates the authentication flow itself.
type AuthEvent struct {
	ID        string
	Kind      AuthEventKind
	UserID    string
	SessionID string
	At        time.Time
	Details   map[string]any
}
