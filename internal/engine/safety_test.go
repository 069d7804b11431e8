package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvecontrol/internal/models"
)

func testSettings() models.SafetySettings {
	return models.SafetySettings{
		MaxSingleTrade: decimal.NewFromInt(1000),
		MaxDailyTrade:  decimal.NewFromInt(10000),
		MaxUserDaily:   decimal.NewFromInt(3000),
	}
}

func TestValidateTrade(t *testing.T) {
	t.Run("admits within all limits", func(t *testing.T) {
		rej := ValidateTrade(decimal.NewFromInt(500), testSettings(), decimal.NewFromInt(2000), decimal.NewFromInt(1000))
		assert.Nil(t, rej)
	})

	t.Run("paused wins over everything", func(t *testing.T) {
		settings := testSettings()
		settings.TradePaused = true
		rej := ValidateTrade(decimal.NewFromInt(1), settings, decimal.Zero, decimal.Zero)
		require.NotNil(t, rej)
		assert.Equal(t, ReasonTradingPaused, rej.Reason)
	})

	t.Run("single trade limit", func(t *testing.T) {
		rej := ValidateTrade(decimal.NewFromInt(1001), testSettings(), decimal.Zero, decimal.Zero)
		require.NotNil(t, rej)
		assert.Equal(t, ReasonSingleTradeLimit, rej.Reason)
		assert.True(t, rej.Limit.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("exactly at single trade limit admitted", func(t *testing.T) {
		rej := ValidateTrade(decimal.NewFromInt(1000), testSettings(), decimal.Zero, decimal.Zero)
		assert.Nil(t, rej)
	})

	t.Run("asset daily limit includes trailing volume", func(t *testing.T) {
		rej := ValidateTrade(decimal.NewFromInt(600), testSettings(), decimal.NewFromInt(9500), decimal.Zero)
		require.NotNil(t, rej)
		assert.Equal(t, ReasonAssetDailyLimit, rej.Reason)
	})

	t.Run("user daily limit checked last", func(t *testing.T) {
		rej := ValidateTrade(decimal.NewFromInt(600), testSettings(), decimal.Zero, decimal.NewFromInt(2500))
		require.NotNil(t, rej)
		assert.Equal(t, ReasonUserDailyLimit, rej.Reason)
		assert.True(t, rej.Limit.Equal(decimal.NewFromInt(3000)))
	})
}
