// Package main is the entrypoint for the Cliplink deep-link API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cliplink/cliplink/internal/analytics"
	"github.com/cliplink/cliplink/internal/cache"
	"github.com/cliplink/cliplink/internal/config"
	"github.com/cliplink/cliplink/internal/docs"
	"github.com/cliplink/cliplink/internal/engine"
	"github.com/cliplink/cliplink/internal/handler"
	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/middleware"
	"github.com/cliplink/cliplink/internal/payment"
	"github.com/cliplink/cliplink/internal/ratelimit"
	"github.com/cliplink/cliplink/internal/server"
	"github.com/cliplink/cliplink/internal/session"
	"github.com/cliplink/cliplink/internal/storage"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	defaultServiceMinor, err := parseMoneyMinor(cfg.DefaultServiceAmount)
	if err != nil {
		logger.Error("invalid DEFAULT_SERVICE_AMOUNT", "value", cfg.DefaultServiceAmount, "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()

	// Connect to Redis only when a backend asks for it.
	var cacheClient *cache.Cache
	if cfg.SessionBackend == config.BackendRedis || cfg.RateLimitBackend == config.BackendRedis {
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
	}

	// Session store
	var sessionStore session.Store
	switch cfg.SessionBackend {
	case config.BackendRedis:
		sessionStore = session.NewRedisStore(cacheClient.Client(), cfg.SessionTimeout)
	default:
		sessionStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, session.Config{
		Timeout:       cfg.SessionTimeout,
		SweepInterval: cfg.SessionSweep,
		Anonymous:     cfg.AnonymousSessions,
	}, logger, recorder)
	sessions.Start()

	// Rate limiter
	var limiter ratelimit.Limiter
	var memoryLimiter *ratelimit.MemoryLimiter
	switch cfg.RateLimitBackend {
	case config.BackendRedis:
		limiter = ratelimit.NewRedisLimiter(cacheClient.Client(), cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst)
	default:
		memoryLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst)
		memoryLimiter.Start()
		limiter = memoryLimiter
	}

	// Analytics object store
	var objectStore storage.ObjectStore
	var postgresStore *storage.PostgresStore
	switch cfg.StorageBackend {
	case config.BackendHTTP:
		objectStore = storage.NewHTTPStore(cfg.StorageBaseURL, cfg.StorageBucket, cfg.StorageToken)
	case config.BackendPostgres:
		postgresStore, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		defer postgresStore.Close()
		logger.Info("connected to database")
		objectStore = postgresStore
	default:
		objectStore = storage.NewMemoryStore()
	}

	pipeline := analytics.NewPipeline(objectStore, cfg.AnalyticsPrefix, cfg.AnalyticsQueueSize, logger, recorder)
	pipeline.Start()

	// Payment gateway
	var gateway payment.Gateway = payment.Disabled{}
	if cfg.StripeKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeKey, logger)
	}

	// Documentation wiki
	var fetcher docs.Fetcher = docs.Disabled{}
	if cfg.DocsBaseURL != "" {
		fetcher = docs.NewHTTPFetcher(cfg.DocsBaseURL)
	}
	documentation := docs.NewCache(fetcher, cfg.DocsCacheTTL, logger, recorder)
	documentation.Start()

	dispatcher := engine.NewDispatcher(gateway, defaultServiceMinor, cfg.DefaultTipPercent, logger)
	eng := engine.New(cfg.Scheme, dispatcher, limiter, sessions, documentation, pipeline, logger, recorder)

	// Initialize handlers
	h := handler.New()
	checks := map[string]handler.Pinger{}
	if cacheClient != nil {
		checks["redis"] = cacheClient
	}
	if postgresStore != nil {
		checks["postgres"] = postgresStore
	}
	healthHandler := handler.NewHealthHandler(checks)
	resolveHandler := handler.NewResolveHandler(eng, logger)
	analyticsHandler := handler.NewAnalyticsHandler(pipeline, logger)
	sessionHandler := handler.NewSessionHandler(sessions, logger)
	metricsHandler := handler.NewMetricsHandler(recorder)

	// Setup router
	r := setupRouter(h, healthHandler, resolveHandler, analyticsHandler, sessionHandler, metricsHandler, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Shutdown runs LIFO: the analytics queue drains first, while the
	// sweeper and evictor are still harmlessly running.
	srv.OnShutdown("sessions", sessions.Shutdown)
	if memoryLimiter != nil {
		srv.OnShutdown("ratelimit", memoryLimiter.Shutdown)
	}
	srv.OnShutdown("docs", documentation.Shutdown)
	srv.OnShutdown("analytics", pipeline.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"scheme", cfg.Scheme,
		"env", cfg.AppEnv,
		"session_backend", cfg.SessionBackend,
		"rate_limit_backend", cfg.RateLimitBackend,
		"storage_backend", cfg.StorageBackend,
		"payments_enabled", cfg.StripeKey != "",
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
	resolveHandler *handler.ResolveHandler,
	analyticsHandler *handler.AnalyticsHandler,
	sessionHandler *handler.SessionHandler,
	metricsHandler *handler.MetricsHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowedOrigins = origins
	}
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/deeplinks", func(r chi.Router) {
			r.Get("/resolve", resolveHandler.Resolve)
			r.Post("/resolve", resolveHandler.Resolve)
		})

		// Admin surface; 404s unless ADMIN_TOKEN_HASH is set.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.AdminTokenHash, logger))
			r.Get("/analytics/summary", analyticsHandler.Summary)
			r.Get("/sessions/stats", sessionHandler.Stats)
		})
	})

	if cfg.IsDevelopment() {
		r.Get("/debug/metrics", metricsHandler.Snapshot)
	}

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// parseMoneyMinor converts a decimal amount like "45.00" to minor
// units (cents).
func parseMoneyMinor(raw string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a decimal amount: %w", err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", raw)
	}
	return int64(math.Round(f * 100)), nil
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
