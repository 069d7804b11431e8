package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade error codes. Admission codes (locked, safety, slippage) are expected
// and surfaced verbatim to the end user; state codes indicate caller misuse.
const (
	CodeAssetNotFound       = "ASSET_NOT_FOUND"
	CodeAssetGraduated      = "ASSET_GRADUATED"
	CodeTradingLocked       = "TRADING_LOCKED"
	CodeSafetyLimitExceeded = "SAFETY_LIMIT_EXCEEDED"
	CodeSlippageExceeded    = "SLIPPAGE_EXCEEDED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeLockWaitTimeout     = "LOCK_WAIT_TIMEOUT"
	CodeMigrationState      = "MIGRATION_WRONG_PHASE"
	CodeMigrationRetryCap   = "MIGRATION_RETRY_CAP"
	CodeUnknownPricingModel = "UNKNOWN_PRICING_MODEL"
)

// Safety rejection reasons, in check order.
const (
	ReasonTradingPaused    = "TRADING_PAUSED"
	ReasonSingleTradeLimit = "SINGLE_TRADE_LIMIT_EXCEEDED"
	ReasonAssetDailyLimit  = "ASSET_DAILY_LIMIT_EXCEEDED"
	ReasonUserDailyLimit   = "USER_DAILY_LIMIT_EXCEEDED"
)

// TradeError is the structured failure returned by the engine. Admission
// failures carry the breached limit or remaining lock time so handlers can
// display them without re-deriving anything.
type TradeError struct {
	Code          string          `json:"code"`
	Message       string          `json:"message"`
	Reason        string          `json:"reason,omitempty"`         // safety sub-code
	Limit         decimal.Decimal `json:"limit,omitempty"`          // breached limit
	LockRemaining time.Duration   `json:"lock_remaining,omitempty"` // for TRADING_LOCKED
	Phase         string          `json:"phase,omitempty"`          // for migration state errors
}

func (e *TradeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errAssetNotFound(assetID uint) *TradeError {
	return &TradeError{Code: CodeAssetNotFound, Message: fmt.Sprintf("asset %d not found", assetID)}
}

func errAssetGraduated(assetID uint) *TradeError {
	return &TradeError{Code: CodeAssetGraduated, Message: fmt.Sprintf("asset %d has graduated, curve trading is closed", assetID)}
}

func errTradingLocked(remaining time.Duration) *TradeError {
	return &TradeError{
		Code:          CodeTradingLocked,
		Message:       fmt.Sprintf("creation lock active for another %s", remaining.Round(time.Second)),
		LockRemaining: remaining,
	}
}

func errSlippage(computed, expected, maxPercent decimal.Decimal) *TradeError {
	return &TradeError{
		Code:    CodeSlippageExceeded,
		Message: fmt.Sprintf("price %s deviates from expected %s by more than %s%%", computed, expected, maxPercent),
	}
}
