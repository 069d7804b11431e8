package routes

import (
	"github.com/gin-gonic/gin"

	"curvecontrol/internal/handlers"
)

// SetupSafetySettingsRoutes sets up all routes related to trade admission limits
func SetupSafetySettingsRoutes(r *gin.Engine) {
	settings := r.Group("/safety-settings")
	{
		settings.GET("/asset/:id", handlers.GetSafetySettings)
		settings.PUT("/asset/:id", handlers.UpdateSafetySettings)
		settings.PATCH("/asset/:id/pause", handlers.PauseTrading)
	}
}
