package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"curvecontrol/internal/models"
	dbconfig "curvecontrol/pkg/config"
)

// SafetySettingsRequest represents the request body for updating limits
type SafetySettingsRequest struct {
	MaxSingleTrade *decimal.Decimal `json:"max_single_trade"`
	MaxDailyTrade  *decimal.Decimal `json:"max_daily_trade"`
	MaxUserDaily   *decimal.Decimal `json:"max_user_daily"`
}

// PauseRequest represents the request body for pausing/resuming trading
type PauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

// GetSafetySettings returns the per-asset limits
func GetSafetySettings(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var settings models.SafetySettings
	if err := dbconfig.DB.Where("asset_id = ?", assetID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSafetySettings overrides per-asset limits; omitted fields keep their
// current value
func UpdateSafetySettings(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request SafetySettingsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var settings models.SafetySettings
	if err := dbconfig.DB.Where("asset_id = ?", assetID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if request.MaxSingleTrade != nil {
		if request.MaxSingleTrade.Sign() <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_single_trade must be positive"})
			return
		}
		updates["max_single_trade"] = *request.MaxSingleTrade
	}
	if request.MaxDailyTrade != nil {
		if request.MaxDailyTrade.Sign() <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_daily_trade must be positive"})
			return
		}
		updates["max_daily_trade"] = *request.MaxDailyTrade
	}
	if request.MaxUserDaily != nil {
		if request.MaxUserDaily.Sign() <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_user_daily must be positive"})
			return
		}
		updates["max_user_daily"] = *request.MaxUserDaily
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := dbconfig.DB.Model(&settings).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PauseTrading flips the per-asset pause flag
func PauseTrading(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request PauseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var settings models.SafetySettings
	if err := dbconfig.DB.Where("asset_id = ?", assetID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := dbconfig.DB.Model(&settings).Update("trade_paused", *request.Paused).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}
