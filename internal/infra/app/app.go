package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/talent-platform-auth/internal/core/port"
	"github.com/arklim/talent-platform-auth/internal/infra/config"
	"github.com/arklim/talent-platform-auth/internal/infra/database"
	kafkainfra "github.com/arklim/talent-platform-auth/internal/infra/kafka"
	"github.com/arklim/talent-platform-auth/internal/infra/logger"
	redisinfra "github.com/arklim/talent-platform-auth/internal/infra/redis"
	"github.com/arklim/talent-platform-auth/internal/infra/security"
	"github.com/arklim/talent-platform-auth/internal/infra/telemetry"
	postgresrepo "github.com/arklim/talent-platform-auth/internal/repository/postgres"
	redisrepo "github.com/arklim/talent-platform-auth/internal/repository/redis"
	"github.com/arklim/talent-platform-auth/internal/transport/http/middleware"
	"github.com/arklim/talent-platform-auth/internal/transport/http/routes"
	"github.com/arklim/talent-platform-auth/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	codec, err := buildTokenCodec(cfg.JWT)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)
	blacklist := redisrepo.NewBlacklistRepository(redisClient.Client(), cfg.Redis.BlacklistPrefix)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			producer = kafkaProducer
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	eventMetrics, err := telemetry.NewAuthMetrics(eventPublisher, nil)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init auth metrics: %w", err)
	}
	eventPublisher = eventMetrics

	passwordPolicy := &security.PasswordPolicy{
		MinLength:        cfg.Password.MinLength,
		RequireUppercase: cfg.Password.RequireUppercase,
		RequireLowercase: cfg.Password.RequireLowercase,
		RequireDigit:     cfg.Password.RequireDigit,
		RequireSpecial:   cfg.Password.RequireSpecial,
		MinStrengthScore: cfg.Password.MinStrengthScore,
	}

	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authService := usecase.NewAuthService(repos.Users, repos.Sessions, blacklist, codec, eventPublisher)
	tokenService := usecase.NewTokenService(repos.Users, repos.Sessions, blacklist, codec, eventPublisher)
	registrationService := usecase.NewRegistrationService(repos.Users, repos.Tokens, passwordPolicy, eventPublisher)
	userService := usecase.NewUserService(repos.Users)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     httpMetrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:         authService,
			Tokens:       tokenService,
			Registration: registrationService,
			Users:        userService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// buildTokenCodec selects the signing family. HS256 signs with the shared
// secret; RS256 loads an RSA key pair from the configured directory.
func buildTokenCodec(cfg config.JWTSettings) (*security.TokenCodec, error) {
	codecConfig := security.CodecConfig{
		Algorithm:       cfg.Algorithm,
		Issuer:          cfg.Issuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	switch {
	case isRS256(cfg.Algorithm):
		keys, err := security.NewFileKeyProvider(cfg.KeyDirectory)
		if err != nil {
			return nil, fmt.Errorf("load rsa keys: %w", err)
		}
		codecConfig.Keys = keys
		codecConfig.SigningKID = keys.SigningKID()
	default:
		codecConfig.Secret = []byte(cfg.Secret)
	}

	return security.NewTokenCodec(codecConfig)
}

func isRS256(algorithm string) bool {
	switch algorithm {
	case "RS256", "rs256":
		return true
	}
	return false
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
