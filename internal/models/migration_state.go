package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Migration phases
const (
	MigrationPhasePending    = "pending"
	MigrationPhaseInProgress = "in_progress"
	MigrationPhaseCompleted  = "completed"
	MigrationPhaseFailed     = "failed"
)

// MigrationState is the evolving migration record for one asset. A record is
// created on the first attempt and reused on retry after failure; completed
// and failed are terminal for that transition. A rollback writes a new
// transition row instead of mutating a completed one.
type MigrationState struct {
	ID      uint `gorm:"primarykey" json:"id"`
	AssetID uint `gorm:"not null;index" json:"asset_id"`

	Phase       string `gorm:"size:16;not null;default:'pending'" json:"phase"`
	FromModel   string `gorm:"size:16;not null" json:"from_model"`
	TargetModel string `gorm:"size:16;not null" json:"target_model"`
	IsRollback  bool   `gorm:"default:false" json:"is_rollback"`

	OldPrice  decimal.Decimal `gorm:"type:numeric(38,18)" json:"old_price"`
	OldSupply decimal.Decimal `gorm:"type:numeric(38,18)" json:"old_supply"` // tokens sold under the old model
	NewPrice  decimal.Decimal `gorm:"type:numeric(38,18)" json:"new_price"`
	NewSupply decimal.Decimal `gorm:"type:numeric(38,18)" json:"new_supply"`

	ValidationPassed bool   `gorm:"default:false" json:"validation_passed"`
	FailureReason    string `gorm:"size:512" json:"failure_reason,omitempty"`
	AttemptCount     int    `gorm:"default:0" json:"attempt_count"`

	// Snapshot of the pre-migration asset fields, sufficient to reverse the
	// transition.
	RollbackData json.RawMessage `gorm:"type:jsonb" json:"rollback_data,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (MigrationState) TableName() string {
	return "migration_states"
}

// AssetSnapshot is the rollback_data payload.
type AssetSnapshot struct {
	PricingModel        string          `json:"pricing_model"`
	FundsRaised         decimal.Decimal `json:"funds_raised"`
	TokensSold          decimal.Decimal `json:"tokens_sold"`
	CurrentPrice        decimal.Decimal `json:"current_price"`
	TotalSupply         decimal.Decimal `json:"total_supply"`
	CurveSupply         decimal.Decimal `json:"curve_supply"`
	LpSupply            decimal.Decimal `json:"lp_supply"`
	GraduationThreshold decimal.Decimal `json:"graduation_threshold"`
}
