package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/models"
)

func TestSplitFee(t *testing.T) {
	cfg, err := curve.Resolve(curve.ModelV3)
	require.NoError(t, err)

	// v3: 1% trading fee split 50/50
	fees := splitFee(cfg, decimal.NewFromInt(1000))
	assert.True(t, fees.total.Equal(decimal.NewFromInt(10)), "total %s", fees.total)
	assert.True(t, fees.creator.Equal(decimal.NewFromInt(5)), "creator %s", fees.creator)
	assert.True(t, fees.platform.Equal(decimal.NewFromInt(5)), "platform %s", fees.platform)
	assert.True(t, fees.creator.Add(fees.platform).Equal(fees.total))
}

func TestSplitFeeUnevenSplit(t *testing.T) {
	cfg, err := curve.Resolve(curve.ModelV4)
	require.NoError(t, err)

	// v4: 1% fee split 40/60, the platform side absorbs rounding
	fees := splitFee(cfg, decimal.NewFromInt(100))
	assert.True(t, fees.total.Equal(decimal.NewFromInt(1)))
	assert.True(t, fees.creator.Equal(decimal.RequireFromString("0.4")))
	assert.True(t, fees.platform.Equal(decimal.RequireFromString("0.6")))
}

func TestSlippageExceeded(t *testing.T) {
	five := decimal.NewFromInt(5)

	t.Run("within tolerance", func(t *testing.T) {
		assert.False(t, slippageExceeded(
			decimal.RequireFromString("0.0000104"),
			decimal.RequireFromString("0.00001"),
			five,
		))
	})

	t.Run("beyond tolerance", func(t *testing.T) {
		assert.True(t, slippageExceeded(
			decimal.RequireFromString("0.0000106"),
			decimal.RequireFromString("0.00001"),
			five,
		))
	})

	t.Run("symmetric on downside", func(t *testing.T) {
		assert.True(t, slippageExceeded(
			decimal.RequireFromString("0.0000094"),
			decimal.RequireFromString("0.00001"),
			five,
		))
	})

	t.Run("zero expected disables the check", func(t *testing.T) {
		assert.False(t, slippageExceeded(decimal.NewFromInt(99), decimal.Zero, five))
	})
}

func TestAdmissionAmount(t *testing.T) {
	cfg, err := curve.Resolve(curve.ModelV3)
	require.NoError(t, err)

	t.Run("buys pass through unchanged", func(t *testing.T) {
		value, err := admissionAmount(cfg, decimal.Zero, models.TradeDirectionBuy, decimal.NewFromInt(1500))
		require.NoError(t, err)
		assert.True(t, value.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("sells are valued in prompt units", func(t *testing.T) {
		// a 1000-prompt position near genesis is tens of millions of tokens;
		// the token count must never be compared against prompt-denominated
		// limits directly
		inv, err := curve.TokensSoldFromRaised(cfg, decimal.NewFromInt(1000))
		require.NoError(t, err)
		half := inv.TokensSold.Div(decimal.NewFromInt(2))
		require.True(t, half.GreaterThan(cfg.DefaultMaxSingleTrade))

		value, err := admissionAmount(cfg, inv.TokensSold, models.TradeDirectionSell, half)
		require.NoError(t, err)
		assert.True(t, value.LessThan(decimal.NewFromInt(1000)))

		settings := models.SafetySettings{
			MaxSingleTrade: cfg.DefaultMaxSingleTrade,
			MaxDailyTrade:  cfg.DefaultMaxDailyTrade,
			MaxUserDaily:   cfg.DefaultMaxUserDaily,
		}
		assert.Nil(t, ValidateTrade(value, settings, decimal.Zero, decimal.Zero))
	})

	t.Run("overselling surfaces the curve error", func(t *testing.T) {
		_, err := admissionAmount(cfg, decimal.NewFromInt(100), models.TradeDirectionSell, decimal.NewFromInt(200))
		require.Error(t, err)
	})
}

func TestEffectiveSettings(t *testing.T) {
	cfg, err := curve.Resolve(curve.ModelV3)
	require.NoError(t, err)

	t.Run("defaults from config", func(t *testing.T) {
		asset := &models.Asset{ID: 3}
		settings := effectiveSettings(asset, cfg)
		assert.True(t, settings.MaxSingleTrade.Equal(cfg.DefaultMaxSingleTrade))
		assert.True(t, settings.MaxDailyTrade.Equal(cfg.DefaultMaxDailyTrade))
		assert.True(t, settings.MaxUserDaily.Equal(cfg.DefaultMaxUserDaily))
		assert.False(t, settings.TradePaused)
	})

	t.Run("per-asset row wins", func(t *testing.T) {
		asset := &models.Asset{
			ID: 3,
			SafetySettings: &models.SafetySettings{
				MaxSingleTrade: decimal.NewFromInt(10),
				TradePaused:    true,
			},
		}
		settings := effectiveSettings(asset, cfg)
		assert.True(t, settings.MaxSingleTrade.Equal(decimal.NewFromInt(10)))
		assert.True(t, settings.TradePaused)
	})
}
