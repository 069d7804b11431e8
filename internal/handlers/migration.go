package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/models"
	dbconfig "curvecontrol/pkg/config"
)

// MigrationRequest represents the request body for dry-run and migrate
type MigrationRequest struct {
	AssetID     uint   `json:"asset_id" binding:"required"`
	TargetModel string `json:"target_model" binding:"required"`
}

// RollbackRequest represents the request body for rolling back a migration
type RollbackRequest struct {
	AssetID uint `json:"asset_id" binding:"required"`
}

// DryRunMigration previews a pricing-model transition without mutating state
func DryRunMigration(c *gin.Context) {
	var request MigrationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preview, err := tradeEngine.DryRunMigration(request.AssetID, curve.PricingModel(request.TargetModel))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Migrate commits a pricing-model transition
func Migrate(c *gin.Context) {
	var request MigrationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := tradeEngine.Migrate(ctx, request.AssetID, curve.PricingModel(request.TargetModel))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RollbackMigration reverses the last completed migration
func RollbackMigration(c *gin.Context) {
	var request RollbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := tradeEngine.Rollback(ctx, request.AssetID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMigrationStates returns the migration history for an asset
func ListMigrationStates(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var states []models.MigrationState
	if err := dbconfig.DB.Where("asset_id = ?", assetID).
		Order("id desc").
		Find(&states).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, states)
}
