package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"curvecontrol/internal/engine"
	"curvecontrol/internal/models"
	dbconfig "curvecontrol/pkg/config"
)

// lockWaitTimeout bounds how long a request waits for the asset's exclusive
// lock. A holder is never interrupted.
const lockWaitTimeout = 10 * time.Second

// QuoteRequest represents the request body for a priced preview
type QuoteRequest struct {
	AssetID   uint            `json:"asset_id" binding:"required"`
	Direction string          `json:"direction" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// TradeRequest represents the request body for executing a trade
type TradeRequest struct {
	AssetID            uint            `json:"asset_id" binding:"required"`
	ActorID            string          `json:"actor_id" binding:"required"`
	Direction          string          `json:"direction" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	ExpectedPrice      decimal.Decimal `json:"expected_price"`
	MaxSlippagePercent decimal.Decimal `json:"max_slippage_percent"`
}

// SettlementRequest represents the request body for confirming settlement
type SettlementRequest struct {
	SettlementRef string `json:"settlement_ref" binding:"required"`
}

// GetQuote returns a read-only priced preview, no lock taken
func GetQuote(c *gin.Context) {
	var request QuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := tradeEngine.GetQuote(request.AssetID, request.Direction, request.Amount)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ExecuteTrade runs the gate sequence and commits the trade
func ExecuteTrade(c *gin.Context) {
	var request TradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), lockWaitTimeout)
	defer cancel()

	result, err := tradeEngine.ExecuteTrade(ctx, engine.TradeRequest{
		AssetID:            request.AssetID,
		ActorID:            request.ActorID,
		Direction:          request.Direction,
		Amount:             request.Amount,
		ExpectedPrice:      request.ExpectedPrice,
		MaxSlippagePercent: request.MaxSlippagePercent,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListTradesBySlice returns a paginated trade ledger for one asset
func ListTradesBySlice(c *gin.Context) {
	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	pageSize := 20
	if ps := c.Query("page_size"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}

	offset := (page - 1) * pageSize

	var total int64
	if err := dbconfig.DB.Model(&models.Trade{}).Where("asset_id = ?", assetID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var trades []models.Trade
	if err := dbconfig.DB.Where("asset_id = ?", assetID).
		Order("id desc").
		Offset(offset).
		Limit(pageSize).
		Find(&trades).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)

	c.JSON(http.StatusOK, gin.H{
		"data": trades,
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

// ConfirmTradeSettlement attaches the external settlement reference
func ConfirmTradeSettlement(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request SettlementRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := tradeEngine.ConfirmSettlement(uint(id), request.SettlementRef); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settlement confirmed"})
}
