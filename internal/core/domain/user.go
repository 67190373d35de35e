package domain

import "time"

// UserRole enumerates the platform roles a user can hold.
type UserRole string

const (
	UserRoleCandidate UserRole = "candidate"
	UserRoleRecruiter UserRole = "recruiter"
	UserRoleAdmin     UserRole = "admin"
)

// IsValid reports whether the role is one of the known platform roles.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCandidate, UserRoleRecruiter, UserRoleAdmin:
		return true
	}
	return false
}

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusPendingVerification UserStatus = "pending_verification"
	UserStatusActive              UserStatus = "active"
	UserStatusSuspended           UserStatus = "suspended"
	UserStatusInactive            UserStatus = "inactive"
)

// User mirrors the persisted representation in the users table.
// PasswordHash is opaque to everything except the security package and
// must never be logged or returned to callers.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FullName      string
	Phone         *string
	Role          UserRole
	Status        UserStatus
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLogin     *time.Time
}

// CanAuthenticate reports whether password login is permitted for the account.
// Only active accounts may authenticate; pending and suspended accounts are
// rejected with distinct error kinds by the auth service.
func (u User) CanAuthenticate() bool {
	return u.Status == UserStatusActive
}

// Sanitized returns a copy of the user with credential material stripped.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
