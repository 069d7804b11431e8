package routes

import (
	"github.com/gin-gonic/gin"

	"curvecontrol/internal/handlers"
	"curvecontrol/internal/middleware"
)

// SetupTradeRoutes sets up all routes related to quoting and trading
func SetupTradeRoutes(r *gin.Engine) {
	limiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	})

	trades := r.Group("/trades")
	{
		trades.POST("/quote", handlers.GetQuote)
		trades.POST("", limiter, handlers.ExecuteTrade)
		trades.PATCH("/:id/settlement", handlers.ConfirmTradeSettlement)
	}
}
