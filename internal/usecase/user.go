package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
	"github.com/arklim/talent-platform-auth/internal/repository"
)

// ErrUserNotFound indicates the user record does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidStatus indicates an account status outside the moderation set.
var ErrInvalidStatus = errors.New("invalid account status")

// UserService serves profile reads and updates for authenticated users.
type UserService struct {
	users port.UserRepository

	now func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *UserService) WithClock(clock func() time.Time) *UserService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// GetProfile returns the user's profile with credential material stripped.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateProfile changes the mutable profile fields and returns the updated
// record.
func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName string, phone *string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}

	if err := s.users.UpdateProfile(ctx, userID, fullName, phone, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// ChangeStatus moves an account between active, suspended and inactive.
// pending_verification is owned by the verification flow and cannot be set
// here.
func (s *UserService) ChangeStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	switch status {
	case domain.UserStatusActive, domain.UserStatusSuspended, domain.UserStatusInactive:
	default:
		return nil, ErrInvalidStatus
	}

	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	return s.GetProfile(ctx, userID)
}
