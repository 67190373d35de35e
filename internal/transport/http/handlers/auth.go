package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/talent-platform-auth/internal/core/domain"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/talent-platform-auth/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	tokens       *usecase.TokenService
	registration *usecase.RegistrationService
	isDev        bool

	loginGuard   []gin.HandlerFunc
	refreshGuard []gin.HandlerFunc
}

// AuthHandlerOption configures optional AuthHandler dependencies.
type AuthHandlerOption func(*AuthHandler)

// WithDevMode toggles development-only behaviour (e.g. returning verification tokens).
func WithDevMode(isDev bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.isDev = isDev
	}
}

// WithLoginGuard prepends middleware to the login route, typically the
// per-IP login attempt limit.
func WithLoginGuard(mw ...gin.HandlerFunc) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.loginGuard = append(h.loginGuard, mw...)
	}
}

// WithRefreshGuard prepends middleware to the refresh route. Refresh gets its
// own guard because rotation traffic is far chattier than logins.
func WithRefreshGuard(mw ...gin.HandlerFunc) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.refreshGuard = append(h.refreshGuard, mw...)
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(
	auth *usecase.AuthService,
	tokens *usecase.TokenService,
	registration *usecase.RegistrationService,
	opts ...AuthHandlerOption,
) *AuthHandler {
	handler := &AuthHandler{
		auth:         auth,
		tokens:       tokens,
		registration: registration,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// RegisterRoutes binds authentication routes, applying the configured guards
// ahead of the login and refresh handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/verify-email", h.verifyEmail)

	loginChain := append(append([]gin.HandlerFunc{}, h.loginGuard...), h.login)
	r.POST("/login", loginChain...)
	refreshChain := append(append([]gin.HandlerFunc{}, h.refreshGuard...), h.refresh)
	r.POST("/refresh", refreshChain...)

	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
	r.POST("/logout-all", middleware.RequireAuth(h.auth), h.logoutAll)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		Phone:           req.Phone,
		Role:            domain.UserRole(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		var weak *usecase.WeakPasswordError
		if errors.As(err, &weak) {
			resp := NewErrorResponse(c, "password does not meet requirements")
			for _, violation := range weak.Violations {
				resp.Details = append(resp.Details, gin.H{
					"code":    violation.Code,
					"message": violation.Message,
				})
			}
			c.JSON(http.StatusBadRequest, resp)
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "invalid role"},
			{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Message: "passwords do not match"},
		}, http.StatusInternalServerError, "failed to register user")
		return
	}

	resp := RegisterResponse{
		User:    newUserPayload(result.User),
		Message: "verification required",
	}
	if h.isDev {
		token := result.VerificationToken
		resp.DevVerificationToken = &token
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	if err := h.registration.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrVerificationInvalid, Status: http.StatusBadRequest, Message: "invalid verification token"},
			{Err: usecase.ErrVerificationExpired, Status: http.StatusBadRequest, Message: "verification token expired"},
		}, http.StatusInternalServerError, "failed to verify email")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
			{Err: usecase.ErrAccountNotVerified, Status: http.StatusForbidden, Message: "account pending email verification"},
			{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account suspended"},
			{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account inactive"},
		}, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(result.Tokens, &result.User))
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	pair, err := h.tokens.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrTokenExpired, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: usecase.ErrTokenRevoked, Status: http.StatusUnauthorized, Message: "refresh token revoked"},
			{Err: usecase.ErrWrongTokenType, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrSessionNotFound, Status: http.StatusUnauthorized, Message: "session no longer active"},
			{Err: usecase.ErrAccountNotVerified, Status: http.StatusForbidden, Message: "account pending email verification"},
			{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account suspended"},
			{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account inactive"},
		}, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(*pair, nil))
}

func (h *AuthHandler) logout(c *gin.Context) {
	token, ok := rawBearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidToken, Status: http.StatusUnauthorized, Message: "invalid access token"},
		}, http.StatusInternalServerError, "failed to logout")
		return
	}

	c.JSON(http.StatusOK, LogoutResponse{Message: "logged out"})
}

func (h *AuthHandler) logoutAll(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	count, err := h.auth.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke sessions"))
		return
	}

	c.JSON(http.StatusOK, LogoutAllResponse{
		Message:         "all sessions revoked",
		RevokedSessions: count,
	})
}

func newTokenResponse(pair security.TokenPair, user *domain.User) TokenResponse {
	resp := TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
	if user != nil {
		payload := newUserPayload(*user)
		resp.User = &payload
	}
	return resp
}

func rawBearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
