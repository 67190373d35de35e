package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/repository"
)

var (
	// ErrEmailTaken indicates the email already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordMismatch indicates password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrWeakPassword indicates the password failed the strength policy.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrInvalidEmail indicates the supplied email address is not parseable.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidRole indicates an unknown platform role was requested.
	ErrInvalidRole = errors.New("invalid role")
	// ErrVerificationInvalid indicates the verification token is unknown or used.
	ErrVerificationInvalid = errors.New("invalid verification token")
	// ErrVerificationExpired indicates the verification token outlived its TTL.
	ErrVerificationExpired = errors.New("verification token expired")
)

const verificationTokenTTL = 24 * time.Hour

// WeakPasswordError carries the individual policy violations so transports
// can report all of them at once. Unwraps to ErrWeakPassword.
type WeakPasswordError struct {
	Violations []security.PolicyViolation
}

func (e *WeakPasswordError) Error() string {
	return (&security.PolicyError{Violations: e.Violations}).Error()
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

// RegisterInput captures everything needed to open an account.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	Phone           *string
	Role            domain.UserRole
}

// RegisterResult is the outcome of a successful registration. The raw
// verification token is returned once and never stored; delivery to the user
// is the caller's concern.
type RegisterResult struct {
	User              domain.User
	VerificationToken string
}

// RegistrationService opens accounts and confirms email ownership.
type RegistrationService struct {
	users  port.UserRepository
	tokens port.TokenRepository
	policy *security.PasswordPolicy
	events port.EventPublisher

	now func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	users port.UserRepository,
	tokens port.TokenRepository,
	policy *security.PasswordPolicy,
	events port.EventPublisher,
) *RegistrationService {
	if policy == nil {
		policy = security.DefaultPasswordPolicy()
	}
	return &RegistrationService{
		users:  users,
		tokens: tokens,
		policy: policy,
		events: events,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *RegistrationService) WithClock(clock func() time.Time) *RegistrationService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Register validates the input, stores the credential, and issues an email
// verification token. New accounts start as pending_verification and cannot
// authenticate until VerifyEmail succeeds.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("full name is required")
	}

	role := input.Role
	if role == "" {
		role = domain.UserRoleCandidate
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if violations := s.policy.Check(input.Password); len(violations) > 0 {
		return nil, &WeakPasswordError{Violations: violations}
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Role:         role,
		Status:       domain.UserStatusPendingVerification,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	rawToken, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	record := domain.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(rawToken),
		CreatedAt: now,
		ExpiresAt: now.Add(verificationTokenTTL),
	}
	if err := s.tokens.CreateVerification(ctx, record); err != nil {
		return nil, fmt.Errorf("store verification token: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		ID:     uuid.NewString(),
		Kind:   domain.AuthEventUserRegistered,
		UserID: user.ID,
		At:     now,
		Details: map[string]any{
			"role": string(user.Role),
		},
	})

	return &RegisterResult{
		User:              user.Sanitized(),
		VerificationToken: rawToken,
	}, nil
}

// VerifyEmail consumes a verification token and activates the account. Used
// and unknown tokens fail identically.
func (s *RegistrationService) VerifyEmail(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrVerificationInvalid
	}

	record, err := s.tokens.GetVerificationByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVerificationInvalid
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}

	now := s.now().UTC()
	if record.IsExpired(now) {
		return ErrVerificationExpired
	}

	if err := s.tokens.ConsumeVerification(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVerificationInvalid
		}
		return fmt.Errorf("consume verification token: %w", err)
	}

	if err := s.users.MarkEmailVerified(ctx, record.UserID, now); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}

	return nil
}

func (s *RegistrationService) publish(ctx context.Context, event domain.AuthEvent) {
	if s.events == nil {
		return
	}
	// Advisory only; a broker outage must not fail the user-facing call.
	_ = s.events.Publish(ctx, event)
}
