package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade directions
const (
	TradeDirectionBuy  = "buy"
	TradeDirectionSell = "sell"
)

// Trade is an append-only ledger entry. Rows are never updated after creation
// except to attach the external settlement reference; corrections are new
// compensating entries.
type Trade struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	AssetID   uint   `gorm:"not null;index:idx_trades_asset_created" json:"asset_id"`
	ActorID   string `gorm:"size:100;not null;index:idx_trades_actor_created" json:"actor_id"`
	Direction string `gorm:"size:8;not null" json:"direction"` // "buy" or "sell"

	InputAmount      decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"input_amount"`
	OutputAmount     decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"output_amount"`
	PricePerToken    decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"price_per_token"`
	TokensSoldBefore decimal.Decimal `gorm:"type:numeric(38,18);not null" json:"tokens_sold_before"`

	FeeAmount   decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"fee_amount"`
	CreatorFee  decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"creator_fee"`
	PlatformFee decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0" json:"platform_fee"`

	// Null until the external settlement layer confirms.
	SettlementRef *string `gorm:"size:128" json:"settlement_ref,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_trades_asset_created;index:idx_trades_actor_created"`
}

func (Trade) TableName() string {
	return "trades"
}
