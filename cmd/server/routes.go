package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tripora/backend/internal/handlers"
	"github.com/tripora/backend/internal/middleware"
	"github.com/tripora/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", handlers.Health)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.POST("/revoke", svc.authHandler.Revoke)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Bookings
			protected.POST("/bookings", svc.bookingHandler.Create)
			protected.GET("/bookings/:id", svc.bookingHandler.Get)
			protected.POST("/tickets/:id/cancel", svc.bookingHandler.CancelTicket)
		}
	}
}
