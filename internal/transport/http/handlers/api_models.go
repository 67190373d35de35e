package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details []any  `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserPayload is the API view of a user account.
type UserPayload struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name"`
	Phone         *string           `json:"phone,omitempty"`
	Role          domain.UserRole   `json:"role"`
	Status        domain.UserStatus `json:"status"`
	EmailVerified bool              `json:"email_verified"`
	CreatedAt     time.Time         `json:"created_at"`
	LastLogin     *time.Time        `json:"last_login,omitempty"`
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email           string  `json:"email" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
	FullName        string  `json:"full_name" binding:"required"`
	Phone           *string `json:"phone,omitempty"`
	Role            string  `json:"role,omitempty"`
}

// RegisterResponse contains registration results and next steps.
type RegisterResponse struct {
	User    UserPayload `json:"user"`
	Message string      `json:"message"`
	// DevVerificationToken is ONLY populated in development mode. In
	// production the token travels by email.
	DevVerificationToken *string `json:"dev_verification_token,omitempty"`
}

// VerifyEmailRequest holds the email verification payload.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the standard bearer-token envelope returned by login and
// refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         *UserPayload `json:"user,omitempty"`
}

// RefreshRequest represents the payload to rotate a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutResponse confirms token revocation.
type LogoutResponse struct {
	Message string `json:"message"`
}

// LogoutAllResponse summarises a bulk session revocation.
type LogoutAllResponse struct {
	Message         string `json:"message"`
	RevokedSessions int    `json:"revoked_sessions"`
}

// UpdateProfileRequest captures the mutable profile fields.
type UpdateProfileRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdateUserStatusRequest carries the target status for a moderation action.
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UserStatusResponse reports the outcome of a moderation action.
type UserStatusResponse struct {
	User            UserPayload `json:"user"`
	RevokedSessions int         `json:"revoked_sessions"`
}

// SessionPayload describes a session view in API responses.
type SessionPayload struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	IsCurrent  bool      `json:"is_current"`
}

// SessionListResponse wraps a list of active sessions for a user.
type SessionListResponse struct {
	Sessions []SessionPayload `json:"sessions"`
	Total    int              `json:"total"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// newUserPayload converts a domain user to its API representation.
func newUserPayload(user domain.User) UserPayload {
	payload := UserPayload{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          user.Role,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		LastLogin:     user.LastLogin,
	}

	if user.Phone != nil {
		phone := strings.TrimSpace(*user.Phone)
		if phone != "" {
			payload.Phone = &phone
		}
	}

	return payload
}

// newSessionPayload converts a domain session to its API representation.
func newSessionPayload(session domain.Session, currentSessionID string) SessionPayload {
	return SessionPayload{
		ID:         session.ID,
		CreatedAt:  session.CreatedAt,
		LastUsedAt: session.LastUsedAt,
		IsCurrent:  session.ID == currentSessionID,
	}
}
