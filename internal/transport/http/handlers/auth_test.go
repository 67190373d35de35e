package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/repository"
	"github.com/arklim/talent-platform-auth/internal/transport/http/handlers"
	"github.com/arklim/talent-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/talent-platform-auth/internal/usecase"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	return r.mutate(id, func(u *domain.User) { u.Status = status })
}

func (r *memUserRepo) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.EmailVerified = true
		if u.Status == domain.UserStatusPendingVerification {
			u.Status = domain.UserStatusActive
		}
		u.UpdatedAt = at
	})
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(u *domain.User) { u.LastLogin = &at })
}

func (r *memUserRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = changedAt
	})
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id, fullName string, phone *string, at time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.FullName = fullName
		u.Phone = phone
		u.UpdatedAt = at
	})
}

func (r *memUserRepo) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&user)
	r.users[id] = user
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *memSessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memSessionStore) GetByID(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *memSessionStore) SwapRefreshToken(_ context.Context, sessionID, oldTokenID, newTokenID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || !session.IsActive || session.CurrentRefreshTokenID != oldTokenID {
		return false, nil
	}
	session.CurrentRefreshTokenID = newTokenID
	session.LastUsedAt = at
	s.sessions[sessionID] = session
	return true, nil
}

func (s *memSessionStore) Deactivate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	session.IsActive = false
	s.sessions[sessionID] = session
	return nil
}

func (s *memSessionStore) DeactivateAll(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokenIDs []string
	for id, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			s.sessions[id] = session
			if session.CurrentRefreshTokenID != "" {
				tokenIDs = append(tokenIDs, session.CurrentRefreshTokenID)
			}
		}
	}
	return tokenIDs, nil
}

func (s *memSessionStore) ListActiveByUser(_ context.Context, userID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []domain.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive {
			active = append(active, session)
		}
	}
	return active, nil
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: make(map[string]string)}
}

func (b *memBlacklist) Add(_ context.Context, tokenID, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[tokenID]; !ok {
		b.entries[tokenID] = reason
	}
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[tokenID]
	return ok, nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.VerificationToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]domain.VerificationToken)}
}

func (r *memTokenRepo) CreateVerification(_ context.Context, token domain.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.ID] = token
	return nil
}

func (r *memTokenRepo) GetVerificationByHash(_ context.Context, hash string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == hash && token.UsedAt == nil {
			found := token
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) ConsumeVerification(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	token.UsedAt = &now
	r.tokens[id] = token
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.AuthEvent) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, _ := newTestRouterWithUsers(t)
	return r
}

func newTestRouterWithUsers(t *testing.T) (*gin.Engine, *memUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := security.NewTokenCodec(security.CodecConfig{
		Algorithm:       "HS256",
		Secret:          []byte("handler-test-secret-0123456789ab"),
		Issuer:          "talent-platform-auth",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("build token codec: %v", err)
	}

	users := newMemUserRepo()
	sessions := newMemSessionStore()
	blacklist := newMemBlacklist()
	tokens := newMemTokenRepo()
	publisher := nopPublisher{}

	authService := usecase.NewAuthService(users, sessions, blacklist, codec, publisher)
	tokenService := usecase.NewTokenService(users, sessions, blacklist, codec, publisher)
	registrationService := usecase.NewRegistrationService(users, tokens, nil, publisher)
	userService := usecase.NewUserService(users)

	r := gin.New()
	r.Use(middleware.EnrichContext())

	authHandler := handlers.NewAuthHandler(authService, tokenService, registrationService, handlers.WithDevMode(true))
	authHandler.RegisterRoutes(r.Group("/auth"))

	userHandler := handlers.NewUserHandler(userService, authService)
	userHandler.RegisterRoutes(r.Group("/users"))

	adminHandler := handlers.NewAdminHandler(userService, authService)
	adminHandler.RegisterRoutes(r.Group("/admin"))

	return r, users
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func registerAndVerify(t *testing.T, r *gin.Engine, email, password string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email":            email,
		"password":         password,
		"confirm_password": password,
		"full_name":        "Jane Doe",
		"role":             "candidate",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		DevVerificationToken *string `json:"dev_verification_token"`
	}
	decodeBody(t, w, &created)
	if created.DevVerificationToken == nil || *created.DevVerificationToken == "" {
		t.Fatal("register: expected dev verification token in development mode")
	}

	w = doJSON(t, r, http.MethodPost, "/auth/verify-email", map[string]any{
		"token": *created.DevVerificationToken,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("verify-email: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func login(t *testing.T, r *gin.Engine, email, password string) (access, refresh string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	decodeBody(t, w, &tokens)
	if tokens.TokenType != "bearer" {
		t.Fatalf("login: unexpected token_type %q", tokens.TokenType)
	}
	if tokens.ExpiresIn != int((30 * time.Minute).Seconds()) {
		t.Fatalf("login: unexpected expires_in %d", tokens.ExpiresIn)
	}
	return tokens.AccessToken, tokens.RefreshToken
}

func TestRegisterLoginFlow(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	access, _ := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodGet, "/users/me", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decodeBody(t, w, &profile)
	if profile.Email != "jane.doe@example.com" {
		t.Fatalf("me: unexpected email %q", profile.Email)
	}
	if profile.Role != "candidate" {
		t.Fatalf("me: unexpected role %q", profile.Role)
	}
}

func TestLoginBeforeVerificationForbidden(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email":            "pending@example.com",
		"password":         "Sup3r$ecretPass",
		"confirm_password": "Sup3r$ecretPass",
		"full_name":        "Pending User",
		"role":             "recruiter",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email":    "pending@example.com",
		"password": "Sup3r$ecretPass",
	}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("login: expected 403 for unverified account, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterWeakPasswordDetails(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email":            "weak@example.com",
		"password":         "short",
		"confirm_password": "short",
		"full_name":        "Weak Password",
		"role":             "candidate",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("register: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error   string `json:"error"`
		Details []any  `json:"details"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Details) == 0 {
		t.Fatalf("register: expected policy violations in details, got %s", w.Body.String())
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "taken@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email":            "Taken@Example.com",
		"password":         "An0ther$ecret",
		"confirm_password": "An0ther$ecret",
		"full_name":        "Second Account",
		"role":             "candidate",
	}, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("register: expected 409 for duplicate email, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email":    "jane.doe@example.com",
		"password": "WrongPass1$",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401 for wrong password, got %d", w.Code)
	}

	// Unknown account answers identically to a wrong password.
	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "WrongPass1$",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401 for unknown account, got %d", w.Code)
	}
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	_, refresh := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": refresh,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var rotated struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, w, &rotated)
	if rotated.RefreshToken == refresh {
		t.Fatal("refresh: expected a new refresh token")
	}

	// Replaying the consumed token is treated as theft evidence.
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": refresh,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh replay: expected 401, got %d: %s", w.Code, w.Body.String())
	}

	// Reuse detection revoked the whole session, so the rotated token dies too.
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": rotated.RefreshToken,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after reuse: expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	access, _ := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": access,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh: expected 401 for access token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	access, _ := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/logout", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/users/me", nil, access)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	access1, refresh1 := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	_, refresh2 := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodPost, "/auth/logout-all", nil, access1)
	if w.Code != http.StatusOK {
		t.Fatalf("logout-all: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		RevokedSessions int `json:"revoked_sessions"`
	}
	decodeBody(t, w, &resp)
	if resp.RevokedSessions != 2 {
		t.Fatalf("logout-all: expected 2 revoked sessions, got %d", resp.RevokedSessions)
	}

	for i, refresh := range []string{refresh1, refresh2} {
		w = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
			"refresh_token": refresh,
		}, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("refresh %d after logout-all: expected 401, got %d", i+1, w.Code)
		}
	}
}

func TestListSessionsMarksCurrent(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	access, _ := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	w := doJSON(t, r, http.MethodGet, "/users/me/sessions", nil, access)
	if w.Code != http.StatusOK {
		t.Fatalf("sessions: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Sessions []struct {
			ID        string `json:"id"`
			IsCurrent bool   `json:"is_current"`
		} `json:"sessions"`
		Total int `json:"total"`
	}
	decodeBody(t, w, &resp)
	if resp.Total != 2 {
		t.Fatalf("sessions: expected 2 sessions, got %d", resp.Total)
	}

	current := 0
	for _, session := range resp.Sessions {
		if session.IsCurrent {
			current++
		}
	}
	if current != 1 {
		t.Fatalf("sessions: expected exactly one current session, got %d", current)
	}
}

func TestUpdateProfile(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "jane.doe@example.com", "Sup3r$ecretPass")
	access, _ := login(t, r, "jane.doe@example.com", "Sup3r$ecretPass")

	phone := "+15551234567"
	w := doJSON(t, r, http.MethodPut, "/users/me", map[string]any{
		"full_name": "Jane Q. Doe",
		"phone":     phone,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("update without token: expected 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/users/me", map[string]any{
		"full_name": "Jane Q. Doe",
		"phone":     phone,
	}, access)
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated struct {
		FullName string  `json:"full_name"`
		Phone    *string `json:"phone"`
	}
	decodeBody(t, w, &updated)
	if updated.FullName != "Jane Q. Doe" {
		t.Fatalf("update profile: unexpected full_name %q", updated.FullName)
	}
	if updated.Phone == nil || *updated.Phone != phone {
		t.Fatalf("update profile: unexpected phone %v", updated.Phone)
	}
}

func TestVerifyEmailReplayRejected(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"email":            "replay@example.com",
		"password":         "Sup3r$ecretPass",
		"confirm_password": "Sup3r$ecretPass",
		"full_name":        "Replay User",
		"role":             "candidate",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		DevVerificationToken *string `json:"dev_verification_token"`
	}
	decodeBody(t, w, &created)

	for attempt, wantStatus := range []int{http.StatusOK, http.StatusBadRequest} {
		w = doJSON(t, r, http.MethodPost, "/auth/verify-email", map[string]any{
			"token": *created.DevVerificationToken,
		}, "")
		if w.Code != wantStatus {
			t.Fatalf("verify attempt %d: expected %d, got %d: %s", attempt+1, wantStatus, w.Code, w.Body.String())
		}
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/auth/register", "/auth/login", "/auth/refresh", "/auth/verify-email"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not-json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 for malformed payload, got %d", path, w.Code)
		}
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/auth/logout"},
		{http.MethodPost, "/auth/logout-all"},
		{http.MethodGet, "/users/me"},
		{http.MethodGet, "/users/me/sessions"},
	}

	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without bearer, got %d", tc.method, tc.path, w.Code)
		}

		w = doJSON(t, r, tc.method, tc.path, nil, "not-a-jwt")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 with garbage token, got %d", tc.method, tc.path, w.Code)
		}
	}
}
