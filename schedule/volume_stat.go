package main

import (
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"curvecontrol/internal/models"
	"curvecontrol/pkg/config"
)

// getZeroSecondTime truncates a time to the minute for stable snapshot keys
func getZeroSecondTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// RecordVolumeStats writes one AssetVolumeStat row per asset covering the
// trailing 24 hours
func RecordVolumeStats() error {
	logger.Info("> recording volume stats")

	var assets []models.Asset
	if err := config.DB.Find(&assets).Error; err != nil {
		logger.Errorf("> list assets failed: %v", err)
		return err
	}

	now := time.Now()
	since := now.Add(-24 * time.Hour)

	for _, asset := range assets {
		var row struct {
			BuyVolume  decimal.Decimal
			SellVolume decimal.Decimal
			TradeCount int64
		}
		err := config.DB.Model(&models.Trade{}).
			Select(`COALESCE(SUM(CASE WHEN direction = 'buy' THEN input_amount ELSE 0 END), 0) AS buy_volume,
				COALESCE(SUM(CASE WHEN direction = 'sell' THEN output_amount ELSE 0 END), 0) AS sell_volume,
				COUNT(*) AS trade_count`).
			Where("asset_id = ? AND created_at > ?", asset.ID, since).
			Scan(&row).Error
		if err != nil {
			logger.Errorf("> aggregate volume for asset %d failed: %v", asset.ID, err)
			continue
		}

		stat := models.AssetVolumeStat{
			AssetID:    asset.ID,
			Volume24h:  row.BuyVolume.Add(row.SellVolume),
			TradeCount: row.TradeCount,
			BuyVolume:  row.BuyVolume,
			SellVolume: row.SellVolume,
			ClosePrice: asset.CurrentPrice,
			RecordedAt: getZeroSecondTime(now),
		}
		if err := config.DB.Create(&stat).Error; err != nil {
			logger.Errorf("> create volume stat for asset %d failed: %v", asset.ID, err)
			continue
		}
	}

	logger.Infof("> volume stats recorded for %d assets", len(assets))
	return nil
}
