package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SafetySettings holds per-asset trade admission limits. Defaults come from
// the pricing-model config when no row exists.
type SafetySettings struct {
	ID      uint `gorm:"primarykey" json:"id"`
	AssetID uint `gorm:"not null;uniqueIndex" json:"asset_id"`

	MaxSingleTrade decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"max_single_trade"`
	MaxDailyTrade  decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"max_daily_trade"`
	MaxUserDaily   decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"max_user_daily"`
	TradePaused    bool            `gorm:"default:false" json:"trade_paused"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SafetySettings) TableName() string {
	return "safety_settings"
}
