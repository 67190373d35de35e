package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/core/port"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email or password is incorrect.
	// Unknown emails and wrong passwords intentionally share this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotVerified indicates the account has not confirmed its email.
	ErrAccountNotVerified = errors.New("account pending verification")
	// ErrAccountSuspended indicates the account was suspended by an operator.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountInactive indicates the account was deactivated.
	ErrAccountInactive = errors.New("account inactive")
	// ErrInvalidToken indicates the token is malformed or its signature failed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token outlived its TTL.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates the token id is on the blacklist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrWrongTokenType indicates an access token was used where a refresh
	// token is required, or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrSessionNotFound indicates the session vanished or was deactivated.
	ErrSessionNotFound = errors.New("session not found")
)

// LoginResult bundles the authenticated user with the issued token pair.
type LoginResult struct {
	User   domain.User
	Tokens security.TokenPair
}

// AuthService coordinates password login, token validation, and logout.
type AuthService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	blacklist port.Blacklist
	codec     *security.TokenCodec
	events    port.EventPublisher

	now func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	users port.UserRepository,
	sessions port.SessionStore,
	blacklist port.Blacklist,
	codec *security.TokenCodec,
	events port.EventPublisher,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		codec:     codec,
		events:    events,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Login verifies the credential, opens a session, and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := statusGate(user.Status); err != nil {
		return nil, err
	}

	s.rehashIfNeeded(ctx, user, password)

	now := s.now().UTC()
	sessionID := uuid.NewString()

	pair, err := s.codec.IssuePair(*user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	session := domain.Session{
		ID:                    sessionID,
		UserID:                user.ID,
		CurrentRefreshTokenID: pair.RefreshTokenID,
		CreatedAt:             now,
		LastUsedAt:            now,
		IsActive:              true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		ID:        uuid.NewString(),
		Kind:      domain.AuthEventUserLogin,
		UserID:    user.ID,
		SessionID: sessionID,
		At:        now,
	})

	return &LoginResult{
		User:   user.Sanitized(),
		Tokens: *pair,
	}, nil
}

// Authenticate validates an access token and returns its claims. Revoked
// token ids fail even when the signature and expiry are fine.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*security.TokenClaims, error) {
	claims, err := s.decode(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != domain.TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Logout revokes the presented access token and deactivates its session,
// blacklisting the session's current refresh token alongside. An already
// expired access token logs out successfully; there is nothing left to
// revoke.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.decode(accessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}
	if claims.Type != domain.TokenTypeAccess {
		return ErrWrongTokenType
	}

	if err := s.blacklist.Add(ctx, claims.ID, "user_logout", s.codec.RemainingTTL(claims)); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}

	if claims.SessionID == "" {
		return nil
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetch session: %w", err)
	}

	if session.CurrentRefreshTokenID != "" {
		if err := s.blacklist.Add(ctx, session.CurrentRefreshTokenID, "user_logout", s.codec.RefreshTokenTTL()); err != nil {
			return fmt.Errorf("blacklist refresh token: %w", err)
		}
	}

	if err := s.sessions.Deactivate(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deactivate session: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		ID:        uuid.NewString(),
		Kind:      domain.AuthEventSessionRevoked,
		UserID:    claims.Subject,
		SessionID: session.ID,
		At:        s.now().UTC(),
		Details:   map[string]any{"reason": "user_logout"},
	})

	return nil
}

// LogoutAll deactivates every active session of the user and blacklists each
// session's current refresh token. Outstanding access tokens keep working
// until their short TTL runs out.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	tokenIDs, err := s.sessions.DeactivateAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions: %w", err)
	}

	for _, tokenID := range tokenIDs {
		if err := s.blacklist.Add(ctx, tokenID, "logout_all", s.codec.RefreshTokenTTL()); err != nil {
			return 0, fmt.Errorf("blacklist refresh token: %w", err)
		}
	}

	s.publish(ctx, domain.AuthEvent{
		ID:      uuid.NewString(),
		Kind:    domain.AuthEventSessionRevoked,
		UserID:  userID,
		At:      s.now().UTC(),
		Details: map[string]any{"reason": "logout_all", "sessions": len(tokenIDs)},
	})

	return len(tokenIDs), nil
}

// ListSessions returns the user's active sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessions, err := s.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (s *AuthService) decode(token string) (*security.TokenClaims, error) {
	claims, err := s.codec.Decode(strings.TrimSpace(token))
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// rehashIfNeeded transparently upgrades credentials hashed under older
// parameters. Failures are swallowed: the login already succeeded and the
// next one retries the upgrade.
func (s *AuthService) rehashIfNeeded(ctx context.Context, user *domain.User, password string) {
	stale, err := security.NeedsRehash(user.PasswordHash)
	if err != nil || !stale {
		return
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return
	}

	_ = s.users.UpdatePasswordHash(ctx, user.ID, hash, s.now().UTC())
}

func (s *AuthService) publish(ctx context.Context, event domain.AuthEvent) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event)
}

func statusGate(status domain.UserStatus) error {
	switch status {
	case domain.UserStatusActive:
		return nil
	case domain.UserStatusPendingVerification:
		return ErrAccountNotVerified
	case domain.UserStatusSuspended:
		return ErrAccountSuspended
	default:
		return ErrAccountInactive
	}
}
