package routes

import (
	"github.com/gin-gonic/gin"

	"curvecontrol/internal/handlers"
)

// SetupMigrationRoutes sets up all routes related to pricing-model migration
func SetupMigrationRoutes(r *gin.Engine) {
	migrations := r.Group("/migrations")
	{
		migrations.POST("/dry-run", handlers.DryRunMigration)
		migrations.POST("", handlers.Migrate)
		migrations.POST("/rollback", handlers.RollbackMigration)
	}
}
