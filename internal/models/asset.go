package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is one bonding-curve-backed token. TokensSold and CurrentPrice are
// derived from FundsRaised through the curve math on every commit and are
// never written independently.
type Asset struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Symbol       string `gorm:"size:32;not null;uniqueIndex" json:"symbol"`
	Name         string `gorm:"size:64;not null" json:"name"`
	PricingModel string `gorm:"size:16;not null;default:'v3'" json:"pricing_model"` // 'legacy', 'v3' or 'v4'

	FundsRaised  decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"funds_raised"`
	TokensSold   decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"tokens_sold"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"current_price"`

	TotalSupply         decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"total_supply"`
	CurveSupply         decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"curve_supply"`
	LpSupply            decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"lp_supply"`
	GraduationThreshold decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"graduation_threshold"`

	IsGraduated bool `gorm:"default:false" json:"is_graduated"` // one-way latch

	// Creation lock (MEV protection window)
	CreationLocked    bool       `gorm:"default:false" json:"creation_locked"`
	CreationLockUntil *time.Time `json:"creation_lock_until,omitempty"`
	CreatorID         string     `gorm:"size:100;not null" json:"creator_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	SafetySettings *SafetySettings `gorm:"foreignKey:AssetID" json:"safety_settings,omitempty"`
}

func (Asset) TableName() string {
	return "assets"
}
