package domain

import "time"

// Session represents one logged-in device for a user. The session row is the
// single source of truth for which refresh token id is currently valid: the
// CurrentRefreshTokenID column is swapped with a compare-and-set on every
// rotation, which is what makes a refresh token single-use.
type Session struct {
	ID                    string
	UserID                string
	CurrentRefreshTokenID string
	CreatedAt             time.Time
	LastUsedAt            time.Time
	IsActive              bool
}

// Touch records activity on the session.
func (s *Session) Touch(at time.Time) {
	s.LastUsedAt = at
}

// Deactivate marks the session inactive. Returns true when the session
// transitioned from active to inactive.
func (s *Session) Deactivate() bool {
	if !s.IsActive {
		return false
	}
	s.IsActive = false
	return true
}
