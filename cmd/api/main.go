// Package main is the entrypoint for the Userhub API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/cache"
	"github.com/userhub/userhub/internal/config"
	"github.com/userhub/userhub/internal/handler"
	"github.com/userhub/userhub/internal/metrics"
	"github.com/userhub/userhub/internal/middleware"
	"github.com/userhub/userhub/internal/repository"
	"github.com/userhub/userhub/internal/server"
	"github.com/userhub/userhub/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set; tokens cannot be issued or verified")
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Redis is optional. Without it the revocation set lives in process
	// memory, which is fine for a single instance but not shared.
	var cacheClient *cache.Cache
	var revocations auth.RevocationStore
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		defer cacheClient.Close()
		logger.Info("connected to Redis")
		revocations = cache.NewRevocationStore(cacheClient, cfg.TokenTTL)
	} else {
		logger.Info("REDIS_URL not set, using in-memory token revocation store")
		revocations = auth.NewMemoryRevocationStore(cfg.TokenTTL)
	}

	metricsRecorder := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(repo, hasher, logger, metricsRecorder)

	h := handler.New()
	// A nil *cache.Cache must not end up inside the interface value.
	var cacheChecker handler.HealthChecker
	if cacheClient != nil {
		cacheChecker = cacheClient
	}
	healthHandler := handler.NewHealthHandler(repo, cacheChecker)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	authHandler := handler.NewAuthHandler(userService, tokens, revocations, logger, metricsRecorder)
	userHandler := handler.NewUserHandler(userService, logger)

	r := setupRouter(h, healthHandler, metricsHandler, authHandler, userHandler, tokens, revocations, metricsRecorder, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	tokens *auth.TokenService,
	revocations auth.RevocationStore,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.EnableHSTS = cfg.IsProduction()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Root info endpoint
	r.Get("/", h.Hello)

	authCfg := middleware.AuthConfig{
		Logger:      logger,
		Tokens:      tokens,
		Revocations: revocations,
		Metrics:     recorder,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/protected", authHandler.Protected)

		// Registration is open; everything else under /users needs a
		// valid bearer token.
		r.Post("/users", userHandler.Create)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Get("/users", userHandler.List)
			r.Delete("/users", userHandler.DeleteAll)
			r.Get("/users/{id}", userHandler.Get)
			r.Put("/users/{id}", userHandler.Update)
			r.Patch("/users/{id}", userHandler.Patch)
			r.Delete("/users/{id}", userHandler.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
