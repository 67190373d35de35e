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

// TokenService rotates refresh tokens. Every refresh token is single-use:
// rotation retires the presented jti and binds its successor to the session
// through a compare-and-set, so concurrent presentations of the same token
// yield exactly one winner.
type TokenService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	blacklist port.Blacklist
	codec     *security.TokenCodec
	events    port.EventPublisher

	now func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(
	users port.UserRepository,
	sessions port.SessionStore,
	blacklist port.Blacklist,
	codec *security.TokenCodec,
	events port.EventPublisher,
) *TokenService {
	return &TokenService{
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		codec:     codec,
		events:    events,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Rotate exchanges a valid refresh token for a fresh pair on the same
// session. Presenting a stale refresh token is treated as theft evidence:
// the whole session is deactivated so the holder of the live token is cut
// off too.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*security.TokenPair, error) {
	claims, err := s.codec.Decode(strings.TrimSpace(refreshToken))
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}
	if claims.Type != domain.TokenTypeRefresh {
		return nil, ErrWrongTokenType
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if !session.IsActive {
		return nil, ErrSessionNotFound
	}
	if session.CurrentRefreshTokenID != claims.ID {
		return nil, s.handleReuse(ctx, session, claims)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := statusGate(user.Status); err != nil {
		return nil, err
	}

	pair, err := s.codec.IssuePair(*user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	now := s.now().UTC()
	swapped, err := s.sessions.SwapRefreshToken(ctx, session.ID, claims.ID, pair.RefreshTokenID, now)
	if err != nil {
		return nil, fmt.Errorf("swap refresh token: %w", err)
	}
	if !swapped {
		// A concurrent rotation beat us to the compare-and-set.
		return nil, ErrTokenRevoked
	}

	if err := s.blacklist.Add(ctx, claims.ID, "token_rotated", s.codec.RemainingTTL(claims)); err != nil {
		return nil, fmt.Errorf("blacklist rotated token: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		ID:        uuid.NewString(),
		Kind:      domain.AuthEventTokenRotated,
		UserID:    user.ID,
		SessionID: session.ID,
		At:        now,
	})

	return pair, nil
}

// handleReuse reacts to a refresh token that was already rotated away. The
// session is shut down and both the presented and the live token id are
// blacklisted.
func (s *TokenService) handleReuse(ctx context.Context, session *domain.Session, claims *security.TokenClaims) error {
	_ = s.blacklist.Add(ctx, claims.ID, "token_reuse", s.codec.RemainingTTL(claims))
	if session.CurrentRefreshTokenID != "" {
		_ = s.blacklist.Add(ctx, session.CurrentRefreshTokenID, "token_reuse", s.codec.RefreshTokenTTL())
	}
	if err := s.sessions.Deactivate(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deactivate compromised session: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		ID:        uuid.NewString(),
		Kind:      domain.AuthEventSessionRevoked,
		UserID:    session.UserID,
		SessionID: session.ID,
		At:        s.now().UTC(),
		Details:   map[string]any{"reason": "token_reuse"},
	})

	return ErrTokenRevoked
}

func (s *TokenService) publish(ctx context.Context, event domain.AuthEvent) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, event)
}
