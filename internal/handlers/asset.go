package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/engine"
	"curvecontrol/internal/models"
	dbconfig "curvecontrol/pkg/config"
)

// AssetRequest represents the request body for creating an asset
type AssetRequest struct {
	Symbol              string `json:"symbol" binding:"required"`
	Name                string `json:"name" binding:"required"`
	PricingModel        string `json:"pricing_model" binding:"required"`
	CreatorID           string `json:"creator_id" binding:"required"`
	CreationLockMinutes int    `json:"creation_lock_minutes"`
}

// CreateAsset creates a new bonding-curve asset with a zeroed accumulator
func CreateAsset(c *gin.Context) {
	var request AssetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := curve.Resolve(curve.PricingModel(request.PricingModel))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pricing model must be 'v3' or 'v4'"})
		return
	}

	asset := models.Asset{
		Symbol:              request.Symbol,
		Name:                request.Name,
		PricingModel:        request.PricingModel,
		CreatorID:           request.CreatorID,
		FundsRaised:         decimal.Zero,
		TokensSold:          decimal.Zero,
		CurrentPrice:        cfg.P0,
		TotalSupply:         cfg.TotalSupply,
		CurveSupply:         cfg.CurveSupply,
		LpSupply:            cfg.LpSupply,
		GraduationThreshold: cfg.GraduationThreshold,
	}
	if request.CreationLockMinutes > 0 {
		until := time.Now().Add(time.Duration(request.CreationLockMinutes) * time.Minute)
		asset.CreationLocked = true
		asset.CreationLockUntil = &until
	}

	tx := dbconfig.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if err := tx.Create(&asset).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	settings := models.SafetySettings{
		AssetID:        asset.ID,
		MaxSingleTrade: cfg.DefaultMaxSingleTrade,
		MaxDailyTrade:  cfg.DefaultMaxDailyTrade,
		MaxUserDaily:   cfg.DefaultMaxUserDaily,
	}
	if err := tx.Create(&settings).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	asset.SafetySettings = &settings
	c.JSON(http.StatusCreated, asset)
}

// ListAssets returns a list of all assets
func ListAssets(c *gin.Context) {
	var assets []models.Asset
	if err := dbconfig.DB.Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, assets)
}

// ListAssetsBySlice returns a paginated list of assets
func ListAssetsBySlice(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := 10
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	orderField := "id"
	if of := c.Query("order_field"); of != "" {
		// Validate order field to prevent SQL injection
		validFields := []string{"id", "symbol", "pricing_model", "funds_raised", "current_price", "is_graduated", "created_at", "updated_at"}
		for _, field := range validFields {
			if of == field {
				orderField = of
				break
			}
		}
	}

	orderType := "desc"
	if ot := c.Query("order_type"); ot == "asc" || ot == "desc" {
		orderType = ot
	}

	offset := (page - 1) * pageSize

	var total int64
	if err := dbconfig.DB.Model(&models.Asset{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var assets []models.Asset
	if err := dbconfig.DB.Order(orderField + " " + orderType).
		Offset(offset).
		Limit(pageSize).
		Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	c.JSON(http.StatusOK, gin.H{
		"data": assets,
		"pagination": gin.H{
			"current_page": page,
			"page_size":    pageSize,
			"total_pages":  totalPages,
			"total_count":  total,
			"has_next":     page < int(totalPages),
			"has_prev":     page > 1,
		},
	})
}

// GetAsset returns a specific asset by ID
func GetAsset(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var asset models.Asset
	if err := dbconfig.DB.Preload("SafetySettings").First(&asset, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, asset)
}

// GetAssetBySymbol returns a specific asset by symbol
func GetAssetBySymbol(c *gin.Context) {
	symbol := c.Param("symbol")
	var asset models.Asset
	if err := dbconfig.DB.Where("symbol = ?", symbol).First(&asset).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, asset)
}

// GetAssetProgress returns graduation progress for an asset
func GetAssetProgress(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	progress, graduated, err := tradeEngine.GetProgress(uint(id))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress_percent": progress.ProgressPercent,
		"remaining":        progress.Remaining,
		"is_graduated":     graduated,
	})
}

// GetLockStatus returns the creation-lock view for an actor
func GetLockStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	actorID := c.Query("actor_id")

	var asset models.Asset
	if err := dbconfig.DB.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := engine.CheckCreationLock(&asset, actorID, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"locked":            status.Locked,
		"remaining_seconds": int64(status.Remaining.Seconds()),
		"can_trade":         status.CanTrade,
	})
}
