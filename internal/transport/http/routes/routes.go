package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/talent-platform-auth/internal/infra/config"
	"github.com/arklim/talent-platform-auth/internal/transport/http/handlers"
	"github.com/arklim/talent-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/talent-platform-auth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth         *usecase.AuthService
	Tokens       *usecase.TokenService
	Registration *usecase.RegistrationService
	Users        *usecase.UserService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{"*"}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if globalLimit := buildGlobalRateLimit(deps); globalLimit != nil {
		api.Use(globalLimit)
	}
	{
		isDev := deps.Config != nil && deps.Config.App.Env == "development"

		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(
			deps.Services.Auth,
			deps.Services.Tokens,
			deps.Services.Registration,
			handlers.WithDevMode(isDev),
			handlers.WithLoginGuard(buildAttemptLimit(deps, "auth_login_ip", rateLimitConfig(deps).LoginMaxAttempts)...),
			handlers.WithRefreshGuard(buildAttemptLimit(deps, "auth_refresh_ip", rateLimitConfig(deps).RefreshMaxAttempts)...),
		)
		authHandler.RegisterRoutes(authGroup)

		userGroup := api.Group("/users")

		userHandler := handlers.NewUserHandler(deps.Services.Users, deps.Services.Auth)
		userHandler.RegisterRoutes(userGroup)

		adminGroup := api.Group("/admin")

		adminHandler := handlers.NewAdminHandler(deps.Services.Users, deps.Services.Auth)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

// buildGlobalRateLimit caps every API route per client IP. Health, readiness
// and metrics endpoints sit outside the /api/v1 group and are never limited.
func buildGlobalRateLimit(deps Dependencies) gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.RequestsPerWindow
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "api_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return deps.RateLimiter.RateLimit(rule)
}

func rateLimitConfig(deps Dependencies) config.RateLimitSettings {
	if deps.Config == nil {
		return config.RateLimitSettings{}
	}
	return deps.Config.RateLimit
}

// buildAttemptLimit produces a per-IP fixed-window guard for a credential
// endpoint, keyed under its own rule name so login and refresh budgets are
// tracked separately.
func buildAttemptLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := rateLimitConfig(deps).WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
