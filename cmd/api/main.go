// Package main is the entrypoint for the Bookery API server.
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

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/cache"
	"github.com/bookery/bookery/internal/config"
	"github.com/bookery/bookery/internal/handler"
	"github.com/bookery/bookery/internal/metrics"
	"github.com/bookery/bookery/internal/middleware"
	"github.com/bookery/bookery/internal/repository"
	"github.com/bookery/bookery/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

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

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
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

	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	recorder := metrics.NewInMemory()

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	userHandler := handler.NewUserHandler(repo, tokens, logger, recorder)
	bookHandler := handler.NewBookHandler(repo, logger, recorder)
	pageHandler := handler.NewPageHandler(repo, logger, recorder)

	r := setupRouter(h, healthHandler, metricsHandler, userHandler, bookHandler, pageHandler, tokens, repo, cacheClient, recorder, cfg, logger)

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

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
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
//
// The authentication gate wraps the whole router; which routes skip it is
// decided by its excluded-path list rather than by route grouping, so the
// registration and login endpoints stay reachable while everything else
// requires a bearer token.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	pageHandler *handler.PageHandler,
	tokens *auth.TokenService,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	excludedPaths := append([]string{}, middleware.DefaultExcludedPaths...)
	excludedPaths = append(excludedPaths, "/healthz", "/readyz", "/metrics")

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
	}))
	r.Use(middleware.Authenticate(middleware.AuthConfig{
		Logger:        logger,
		Tokens:        tokens,
		Store:         repo,
		Cache:         cacheClient,
		ExcludedPaths: excludedPaths,
		Metrics:       recorder,
	}))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// API docs (no auth required)
	r.Get("/api/schema/", h.Schema)
	r.Get("/api/docs/", h.Docs)

	// User account routes
	r.Route("/user", func(r chi.Router) {
		r.Post("/register/", userHandler.Register)
		r.Post("/login/", userHandler.Login)
		r.Post("/logout/", userHandler.Logout)
	})

	// Book and page routes (bearer token required)
	r.Route("/book", func(r chi.Router) {
		r.Get("/", bookHandler.List)
		r.Post("/", bookHandler.Create)
		r.Get("/{id}/", bookHandler.Get)
		r.Patch("/{id}/", bookHandler.Update)
		r.Delete("/{id}/", bookHandler.Delete)

		r.Route("/{id}/page", func(r chi.Router) {
			r.Get("/", pageHandler.List)
			r.Post("/", pageHandler.Create)
			r.Get("/{number}/", pageHandler.Get)
			r.Patch("/{number}/", pageHandler.Update)
			r.Delete("/{number}/", pageHandler.Delete)
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
