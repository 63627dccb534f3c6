package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/handlers"
	"capebiz_backend/internal/middleware"
	"capebiz_backend/internal/models"
)

// RegisterRoutes wires the full API surface onto the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	api.GET("/businesses", h.Business.List)
	api.GET("/plans", h.Plan.List)
	api.GET("/plans/:code", h.Plan.Get)

	// Gateway callbacks. Unauthenticated: the gateway is not a bearer of our
	// tokens; notify/success are protected by the signature, cancel is
	// informational.
	paymentsPublic := api.Group("/payments")
	{
		paymentsPublic.GET("/success/:paymentId", h.Payment.Success)
		paymentsPublic.GET("/cancel/:paymentId", h.Payment.Cancel)
		paymentsPublic.POST("/notify/:paymentId", h.Payment.Notify)
	}

	// Authenticated
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/businesses/mine", h.Business.Mine)
		protected.POST("/businesses", h.Business.Create)
		protected.PUT("/businesses/:id", h.Business.Update)

		protected.POST("/payments/subscribe/:businessId/:planCode", h.Payment.Subscribe)
		protected.POST("/payments/boost/:businessId", h.Payment.Boost)
		protected.GET("/payments/history", h.Payment.History)
		protected.GET("/payments/:paymentId/status", h.Payment.Status)
	}

	// Single-listing read sits after /businesses/mine so the static route
	// wins; gin resolves both.
	api.GET("/businesses/:id", h.Business.Get)

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(string(models.UserRoleAdmin)))
	{
		admin.POST("/businesses/:id/approve", h.Business.Approve)
		admin.POST("/plans", h.Plan.Create)
		admin.PUT("/plans/:code", h.Plan.Update)
		admin.POST("/payments/:paymentId/refund", h.Payment.Refund)
	}
}
