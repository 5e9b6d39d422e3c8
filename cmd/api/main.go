package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omprakash24d/mockify-auth/internal/auditlog"
	"github.com/omprakash24d/mockify-auth/internal/background"
	"github.com/omprakash24d/mockify-auth/internal/config"
	"github.com/omprakash24d/mockify-auth/internal/database"
	"github.com/omprakash24d/mockify-auth/internal/handlers"
	middlewareCustom "github.com/omprakash24d/mockify-auth/internal/middleware"
	"github.com/omprakash24d/mockify-auth/internal/provider"
	"github.com/omprakash24d/mockify-auth/internal/repositories"
	"github.com/omprakash24d/mockify-auth/internal/routes"
	"github.com/omprakash24d/mockify-auth/internal/security"
	"github.com/omprakash24d/mockify-auth/internal/services"
	"github.com/omprakash24d/mockify-auth/internal/storage"
	pkghttp "github.com/omprakash24d/mockify-auth/pkg/http"
	pkglogger "github.com/omprakash24d/mockify-auth/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Snapshot store: Redis when configured, in-process otherwise
	var snapshots storage.SnapshotStore
	if cfg.Redis.Addr != "" {
		redisStore, err := storage.NewRedisStore(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		snapshots = redisStore
		logger.Info("session snapshots backed by redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		snapshots = storage.NewMemoryStore()
		logger.Info("session snapshots held in process memory")
	}
	defer snapshots.Close()

	// Initialize repositories
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	authLogRepo := repositories.NewAuthLogRepository(db)

	// Suspicious-activity alerting
	var notifier auditlog.Notifier = services.NoopAlertNotifier{}
	if cfg.Alerts.Enabled {
		sesNotifier, err := services.NewSESAlertNotifier(cfg.Alerts.AWSRegion, cfg.Alerts.FromAddress, cfg.Alerts.ToAddress, logger)
		if err != nil {
			logger.Error("failed to initialize alert notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Auth event log with masked emails and abuse heuristics
	auditLogger := pkglogger.NewAuditLogger(logger)
	authLog := auditlog.NewAuthLogger(authLogRepo, notifier, auditLogger, logger, cfg.Security.LogMaxEntries, cfg.Security.LogRetention)

	// Security components
	lockout := security.NewLockoutTracker(loginAttemptRepo, cfg.Security.MaxLoginAttempts, cfg.Security.LockoutWindow, logger)
	limiter := security.NewRateLimiter(cfg.Security.RateLimitWindow, map[security.Scope]int{
		security.ScopeLogin:  cfg.Security.MaxLoginAttempts,
		security.ScopeSignup: cfg.Security.SignupMaxAttempts,
		security.ScopeReset:  cfg.Security.ResetMaxAttempts,
	}, logger)
	csrfManager := security.NewCSRFTokenManager(cfg.Security.CSRFTokenTTL, cfg.Security.CSRFEnabled)
	sessionManager := security.NewSessionManager(snapshots, cfg.Security.SessionTimeout, cfg.Security.SessionHMACSecret, logger)

	// Identity provider and optional Google sign-in
	idp := provider.NewFirebaseClient(cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Provider.Timeout, logger)

	var google *provider.GoogleAuthenticator
	if cfg.Provider.GoogleClientID != "" {
		google = provider.NewGoogleAuthenticator(
			cfg.Provider.GoogleClientID,
			cfg.Provider.GoogleClientSecret,
			cfg.Provider.GoogleRedirectURL,
			snapshots,
			idp,
			logger,
		)
	}

	// Initialize services
	authService := services.NewAuthService(idp, google, lockout, limiter, csrfManager, sessionManager, authLog, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	auditHandler := handlers.NewAuditHandler(authLog)

	// Background janitor for expired sessions, windows, tokens and log entries
	janitor := background.NewJanitor(sessionManager, limiter, csrfManager, lockout, authLog, logger, cfg.Security.JanitorInterval)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, auditHandler)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	go janitor.Start(janitorCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	janitorCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
