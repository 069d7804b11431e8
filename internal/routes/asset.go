package routes

import (
	"github.com/gin-gonic/gin"

	"curvecontrol/internal/handlers"
)

// SetupAssetRoutes sets up all routes related to asset management
func SetupAssetRoutes(r *gin.Engine) {
	assets := r.Group("/assets")
	{
		assets.GET("", handlers.ListAssets)
		assets.GET("/slice", handlers.ListAssetsBySlice)
		assets.GET("/:id", handlers.GetAsset)
		assets.GET("/symbol/:symbol", handlers.GetAssetBySymbol)
		assets.GET("/:id/progress", handlers.GetAssetProgress)
		assets.GET("/:id/lock-status", handlers.GetLockStatus)
		assets.GET("/:id/trades", handlers.ListTradesBySlice)
		assets.GET("/:id/migrations", handlers.ListMigrationStates)
		assets.POST("", handlers.CreateAsset)
	}
}
