package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"curvecontrol/internal/models"
)

// Trailing-volume aggregation over the trade ledger. Sums are of the prompt
// side of each trade (input for buys, output for sells).

func promptVolumeExpr() string {
	return "COALESCE(SUM(CASE WHEN direction = 'buy' THEN input_amount ELSE output_amount END), 0)"
}

// TrailingAssetVolume returns the asset's prompt volume over the trailing 24
// hours ending at now.
func TrailingAssetVolume(db *gorm.DB, assetID uint, now time.Time) (decimal.Decimal, error) {
	var volume decimal.Decimal
	err := db.Model(&models.Trade{}).
		Select(promptVolumeExpr()).
		Where("asset_id = ? AND created_at > ?", assetID, now.Add(-24*time.Hour)).
		Scan(&volume).Error
	return volume, err
}

// TrailingActorVolume returns one actor's prompt volume on one asset over the
// trailing 24 hours ending at now.
func TrailingActorVolume(db *gorm.DB, assetID uint, actorID string, now time.Time) (decimal.Decimal, error) {
	var volume decimal.Decimal
	err := db.Model(&models.Trade{}).
		Select(promptVolumeExpr()).
		Where("asset_id = ? AND actor_id = ? AND created_at > ?", assetID, actorID, now.Add(-24*time.Hour)).
		Scan(&volume).Error
	return volume, err
}
