package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fee distribution statuses
const (
	FeeDistributionPending   = "pending"
	FeeDistributionCompleted = "completed"
	FeeDistributionFailed    = "failed"
)

// FeeDistribution is the follow-up work record for a committed trade's fee
// split. Distribution failures never roll back the trade; the worker retries
// and tracks the count here.
type FeeDistribution struct {
	ID      uint `gorm:"primarykey" json:"id"`
	TradeID uint `gorm:"not null;uniqueIndex" json:"trade_id"`
	AssetID uint `gorm:"not null;index" json:"asset_id"`

	CreatorID   string          `gorm:"size:100;not null" json:"creator_id"`
	CreatorFee  decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"creator_fee"`
	PlatformFee decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"platform_fee"`

	Status     string `gorm:"size:16;not null;default:'pending';index" json:"status"`
	RetryCount int    `gorm:"default:0" json:"retry_count"`
	LastError  string `gorm:"size:512" json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (FeeDistribution) TableName() string {
	return "fee_distributions"
}
