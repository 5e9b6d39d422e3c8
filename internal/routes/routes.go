package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/omprakash24d/mockify-auth/internal/handlers"
	"github.com/omprakash24d/mockify-auth/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	auditHandler *handlers.AuditHandler,
) {
	// Coarse per-IP throttle in front of the auth endpoints. The fine-grained
	// per-email and per-action limits live in the service layer.
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Get("/auth/csrf", authHandler.IssueCSRFToken)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/password-reset", authHandler.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)
		r.Get("/auth/google/start", authHandler.GoogleStart)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)
	})

	router.Get("/auth/session", authHandler.ValidateSession)
	router.Post("/auth/logout", authHandler.Logout)
	router.Post("/auth/secure-logout", authHandler.SecureLogout)

	// Operator-facing views of the auth event log
	router.Get("/ops/auth-logs", auditHandler.GetLogs)
	router.Get("/ops/auth-stats", auditHandler.GetStats)
}
