package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetVolumeStat is a daily snapshot of per-asset trade volume written by the
// schedule binary. Live admission checks aggregate the trades table directly;
// these rows exist for reporting.
type AssetVolumeStat struct {
	ID      uint `gorm:"primarykey" json:"id"`
	AssetID uint `gorm:"not null;index" json:"asset_id"`

	Volume24h  decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"volume_24h"`
	TradeCount int64           `gorm:"not null;default:0" json:"trade_count"`
	BuyVolume  decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"buy_volume"`
	SellVolume decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"sell_volume"`
	ClosePrice decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"close_price"`
	RecordedAt time.Time       `gorm:"not null;index" json:"recorded_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (AssetVolumeStat) TableName() string {
	return "asset_volume_stats"
}
