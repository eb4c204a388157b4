package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/smartexpense/smartexpense-backend/internal/middleware"
)

// Handlers bundles every HTTP handler for route registration
type Handlers struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Category    *CategoryHandler
	Transaction *TransactionHandler
	Budget      *BudgetHandler
	Recurring   *RecurringHandler
	Analytics   *AnalyticsHandler
	Receipt     *ReceiptHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes only need a valid Auth0 token; the callback is what
	// provisions the local user, so RequireUser would lock new users out
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	// Everything below requires a provisioned local user
	protected := []echo.MiddlewareFunc{
		authMiddleware.Authenticate(),
		middleware.RequireUser(),
		middleware.RateLimitMiddleware(rateLimiter),
	}

	// Profile routes
	profile := api.Group("/profile", protected...)
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("", h.Profile.UpdateProfile)

	// Category routes
	categories := api.Group("/categories", protected...)
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)
	categories.GET("/:id", h.Category.GetCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	// Transaction routes
	transactions := api.Group("/transactions", protected...)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/recent", h.Transaction.GetRecentTransactions)
	transactions.GET("/summary", h.Transaction.GetSummary)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Receipt routes
	transactions.POST("/:id/receipt", h.Receipt.AttachReceipt)
	transactions.GET("/:id/receipt", h.Receipt.GetReceiptURL)
	transactions.DELETE("/:id/receipt", h.Receipt.RemoveReceipt)

	// Budget routes
	budgets := api.Group("/budgets", protected...)
	budgets.POST("", h.Budget.CreateBudget)
	budgets.GET("", h.Budget.GetBudgets)
	budgets.GET("/summary", h.Budget.GetBudgetSummary)
	budgets.GET("/:id", h.Budget.GetBudget)
	budgets.PUT("/:id", h.Budget.UpdateBudget)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)

	// Recurring transaction routes
	recurring := api.Group("/recurring", protected...)
	recurring.POST("", h.Recurring.CreateRecurring)
	recurring.GET("", h.Recurring.GetRecurring)
	recurring.POST("/generate-all", h.Recurring.GenerateAll)
	recurring.GET("/:id", h.Recurring.GetRecurringByID)
	recurring.PUT("/:id", h.Recurring.UpdateRecurring)
	recurring.DELETE("/:id", h.Recurring.DeleteRecurring)
	recurring.PATCH("/:id/toggle", h.Recurring.ToggleActive)
	recurring.POST("/:id/generate", h.Recurring.Generate)

	// Analytics routes
	analytics := api.Group("/analytics", protected...)
	analytics.GET("/overview", h.Analytics.GetOverview)
	analytics.GET("/trend", h.Analytics.GetTrend)
	analytics.GET("/categories", h.Analytics.GetCategoryBreakdown)
	analytics.GET("/top-categories", h.Analytics.GetTopCategories)
	analytics.GET("/monthly-comparison", h.Analytics.GetMonthlyComparison)
	analytics.GET("/budget-performance", h.Analytics.GetBudgetPerformance)

	// WebSocket endpoint authenticates via query token, not middleware
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}
}
