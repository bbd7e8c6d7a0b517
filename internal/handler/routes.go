package handler

import (
	"github.com/cofreforte/cofre-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth         *AuthHandler
	Subscription *SubscriptionHandler
	Dashboard    *DashboardHandler
	Calendar     *CalendarHandler
	Report       *ReportHandler
	Achievement  *AchievementHandler
}

// RegisterRoutes sets up all API routes. rateLimit may be nil.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	protect := func(g *echo.Group) {
		g.Use(authMiddleware.Authenticate())
		if rateLimit != nil {
			g.Use(rateLimit)
		}
	}

	// Auth routes. The callback runs before the workspace exists.
	auth := api.Group("/auth")
	auth.POST("/callback", h.Auth.Callback, authMiddleware.AuthenticateToken())
	authed := auth.Group("")
	protect(authed)
	authed.GET("/me", h.Auth.Me)
	authed.PUT("/me", h.Auth.UpdateProfile)
	authed.POST("/logout", h.Auth.Logout)

	// Subscription routes (protected)
	subscriptions := api.Group("/subscriptions")
	protect(subscriptions)
	subscriptions.POST("", h.Subscription.CreateSubscription)
	subscriptions.GET("", h.Subscription.GetSubscriptions)
	subscriptions.POST("/import", h.Subscription.ImportSubscriptions)
	subscriptions.GET("/:id", h.Subscription.GetSubscription)
	subscriptions.PUT("/:id", h.Subscription.UpdateSubscription)
	subscriptions.DELETE("/:id", h.Subscription.DeleteSubscription)
	subscriptions.POST("/:id/activate", h.Subscription.ActivateSubscription)
	subscriptions.PATCH("/:id/toggle-active", h.Subscription.ToggleActive)
	subscriptions.GET("/:id/share-message", h.Subscription.GetShareMessage)
	subscriptions.POST("/:id/logo", h.Subscription.UploadLogo)

	// Dashboard routes (protected)
	dashboard := api.Group("/dashboard")
	protect(dashboard)
	dashboard.GET("/summary", h.Dashboard.GetSummary)
	dashboard.GET("/subscriptions", h.Dashboard.GetSubscriptions)

	// Calendar routes (protected)
	calendar := api.Group("/calendar")
	protect(calendar)
	calendar.GET("", h.Calendar.GetCalendar)
	calendar.GET("/:date", h.Calendar.GetDay)

	// Report routes (protected)
	reports := api.Group("/reports")
	protect(reports)
	reports.GET("", h.Report.GetReport)
	reports.GET("/payments", h.Report.GetPayments)

	// Achievement routes (protected)
	achievements := api.Group("/achievements")
	protect(achievements)
	achievements.GET("", h.Achievement.GetAchievements)
}
