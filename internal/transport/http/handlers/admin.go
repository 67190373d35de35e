package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/talent-platform-auth/internal/usecase"
)

// AdminHandler exposes moderation endpoints. Every route requires an
// authenticated admin.
type AdminHandler struct {
	users *usecase.UserService
	auth  *usecase.AuthService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(users *usecase.UserService, auth *usecase.AuthService) *AdminHandler {
	return &AdminHandler{
		users: users,
		auth:  auth,
	}
}

// RegisterRoutes binds moderation routes behind authentication and the admin
// role.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("")
	admin.Use(middleware.RequireAuth(h.auth), middleware.RequireRole(domain.UserRoleAdmin))
	admin.PUT("/users/:id/status", h.updateUserStatus)
}

// updateUserStatus changes an account's status. Taking an account out of
// active also revokes its sessions, so a suspension cuts off the holder's
// refresh tokens immediately.
func (h *AdminHandler) updateUserStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}

	userID := c.Param("id")
	status := domain.UserStatus(strings.TrimSpace(req.Status))

	user, err := h.users.ChangeStatus(c.Request.Context(), userID, status)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidStatus, Status: http.StatusBadRequest, Message: "invalid account status"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to update user status")
		return
	}

	resp := UserStatusResponse{User: newUserPayload(*user)}

	if status != domain.UserStatusActive {
		revoked, err := h.auth.LogoutAll(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke user sessions"))
			return
		}
		resp.RevokedSessions = revoked
	}

	c.JSON(http.StatusOK, resp)
}
