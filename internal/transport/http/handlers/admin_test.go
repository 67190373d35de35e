package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
)

// promoteToAdmin flips a registered account's role so a subsequent login
// mints admin-scoped tokens.
func promoteToAdmin(t *testing.T, users *memUserRepo, email string) string {
	t.Helper()

	user, err := users.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("GetByEmail(%q): %v", email, err)
	}
	if err := users.mutate(user.ID, func(u *domain.User) { u.Role = domain.UserRoleAdmin }); err != nil {
		t.Fatalf("promote %q: %v", email, err)
	}
	return user.ID
}

func adminTestSetup(t *testing.T) (*gin.Engine, *memUserRepo, string) {
	t.Helper()

	r, users := newTestRouterWithUsers(t)

	registerAndVerify(t, r, "root@example.com", "Sup3r$ecretPass")
	promoteToAdmin(t, users, "root@example.com")
	adminAccess, _ := login(t, r, "root@example.com", "Sup3r$ecretPass")

	return r, users, adminAccess
}

func TestAdminSuspendRevokesSessionsAndBlocksUser(t *testing.T) {
	r, users, adminAccess := adminTestSetup(t)

	registerAndVerify(t, r, "target@example.com", "Sup3r$ecretPass")
	_, targetRefresh := login(t, r, "target@example.com", "Sup3r$ecretPass")

	target, err := users.GetByEmail(context.Background(), "target@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	w := doJSON(t, r, http.MethodPut, "/admin/users/"+target.ID+"/status", map[string]any{
		"status": "suspended",
	}, adminAccess)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			Status string `json:"status"`
		} `json:"user"`
		RevokedSessions int `json:"revoked_sessions"`
	}
	decodeBody(t, w, &resp)
	if resp.User.Status != string(domain.UserStatusSuspended) {
		t.Fatalf("expected suspended status, got %q", resp.User.Status)
	}
	if resp.RevokedSessions != 1 {
		t.Fatalf("expected 1 revoked session, got %d", resp.RevokedSessions)
	}

	// The live refresh token died with the session.
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]any{
		"refresh_token": targetRefresh,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked refresh token, got %d: %s", w.Code, w.Body.String())
	}

	// And the credentials no longer open a new session.
	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{
		"email":    "target@example.com",
		"password": "Sup3r$ecretPass",
	}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for suspended login, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminStatusChangeValidation(t *testing.T) {
	r, users, adminAccess := adminTestSetup(t)

	registerAndVerify(t, r, "target@example.com", "Sup3r$ecretPass")
	target, err := users.GetByEmail(context.Background(), "target@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	w := doJSON(t, r, http.MethodPut, "/admin/users/"+target.ID+"/status", map[string]any{
		"status": "banned",
	}, adminAccess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/admin/users/"+target.ID+"/status", map[string]any{
		"status": "pending_verification",
	}, adminAccess)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for pending_verification, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/admin/users/no-such-user/status", map[string]any{
		"status": "suspended",
	}, adminAccess)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, users := newTestRouterWithUsers(t)

	registerAndVerify(t, r, "candidate@example.com", "Sup3r$ecretPass")
	access, _ := login(t, r, "candidate@example.com", "Sup3r$ecretPass")

	candidate, err := users.GetByEmail(context.Background(), "candidate@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}

	w := doJSON(t, r, http.MethodPut, "/admin/users/"+candidate.ID+"/status", map[string]any{
		"status": "suspended",
	}, access)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/admin/users/"+candidate.ID+"/status", map[string]any{
		"status": "suspended",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer, got %d: %s", w.Code, w.Body.String())
	}
}
