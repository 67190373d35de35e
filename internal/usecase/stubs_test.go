package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/repository"
)

func newTestCodec(t *testing.T) *security.TokenCodec {
	t.Helper()

	codec, err := security.NewTokenCodec(security.CodecConfig{
		Algorithm:       "HS256",
		Secret:          []byte("unit-test-secret-0123456789abcdef"),
		Issuer:          "talent-platform-auth",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	return codec
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	passwordUpdates int
	lastLoginAt     *time.Time
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copied := user
	r.users[user.ID] = &copied
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (r *stubUserRepo) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	if user.Status == domain.UserStatusPendingVerification {
		user.Status = domain.UserStatusActive
	}
	user.UpdatedAt = at
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLogin = &at
	r.lastLoginAt = &at
	return nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = changedAt
	r.passwordUpdates++
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, fullName string, phone *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FullName = fullName
	user.Phone = phone
	user.UpdatedAt = at
	return nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubSessionStore(sessions ...*domain.Session) *stubSessionStore {
	store := &stubSessionStore{sessions: make(map[string]*domain.Session)}
	for _, session := range sessions {
		store.sessions[session.ID] = session
	}
	return store
}

func (s *stubSessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *stubSessionStore) GetByID(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSessionStore) SwapRefreshToken(_ context.Context, sessionID, oldTokenID, newTokenID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || !session.IsActive || session.CurrentRefreshTokenID != oldTokenID {
		return false, nil
	}
	session.CurrentRefreshTokenID = newTokenID
	session.LastUsedAt = at
	return true, nil
}

func (s *stubSessionStore) Deactivate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	session.IsActive = false
	return nil
}

func (s *stubSessionStore) DeactivateAll(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokenIDs []string
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			if session.CurrentRefreshTokenID != "" {
				tokenIDs = append(tokenIDs, session.CurrentRefreshTokenID)
			}
		}
	}
	return tokenIDs, nil
}

func (s *stubSessionStore) ListActiveByUser(_ context.Context, userID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sessions []domain.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

type stubBlacklist struct {
	mu      sync.Mutex
	entries map[string]string
}

func newStubBlacklist() *stubBlacklist {
	return &stubBlacklist{entries: make(map[string]string)}
}

func (b *stubBlacklist) Add(_ context.Context, tokenID, reason string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	if _, ok := b.entries[tokenID]; !ok {
		b.entries[tokenID] = reason
	}
	return nil
}

func (b *stubBlacklist) Contains(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[tokenID]
	return ok, nil
}

func (b *stubBlacklist) reasonFor(tokenID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[tokenID]
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.VerificationToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.VerificationToken)}
}

func (r *stubTokenRepo) CreateVerification(_ context.Context, token domain.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *stubTokenRepo) GetVerificationByHash(_ context.Context, hash string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == hash && token.UsedAt == nil {
			copied := *token
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubTokenRepo) ConsumeVerification(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	token.UsedAt = &now
	return nil
}

type stubEventPublisher struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (p *stubEventPublisher) Publish(_ context.Context, event domain.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *stubEventPublisher) kinds() []domain.AuthEventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]domain.AuthEventKind, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}
