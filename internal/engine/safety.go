package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"curvecontrol/internal/models"
)

// SafetyRejection is a structured admission denial. It is not a Go error:
// rejections are expected, logged by the caller for audit and returned to the
// user with the specific limit breached.
type SafetyRejection struct {
	Reason  string          `json:"reason"`
	Limit   decimal.Decimal `json:"limit"`
	Message string          `json:"message"`
}

// ValidateTrade applies the admission checks in order against a prospective
// trade amount. assetVol24h and actorVol24h are trailing 24-hour aggregates
// supplied by the caller. A nil result means the trade is admitted.
func ValidateTrade(amount decimal.Decimal, settings models.SafetySettings, assetVol24h, actorVol24h decimal.Decimal) *SafetyRejection {
	if settings.TradePaused {
		return &SafetyRejection{
			Reason:  ReasonTradingPaused,
			Message: "trading is paused for this asset",
		}
	}
	if amount.GreaterThan(settings.MaxSingleTrade) {
		return &SafetyRejection{
			Reason:  ReasonSingleTradeLimit,
			Limit:   settings.MaxSingleTrade,
			Message: fmt.Sprintf("amount %s exceeds single trade limit %s", amount, settings.MaxSingleTrade),
		}
	}
	if assetVol24h.Add(amount).GreaterThan(settings.MaxDailyTrade) {
		return &SafetyRejection{
			Reason:  ReasonAssetDailyLimit,
			Limit:   settings.MaxDailyTrade,
			Message: fmt.Sprintf("asset 24h volume %s plus %s exceeds daily limit %s", assetVol24h, amount, settings.MaxDailyTrade),
		}
	}
	if actorVol24h.Add(amount).GreaterThan(settings.MaxUserDaily) {
		return &SafetyRejection{
			Reason:  ReasonUserDailyLimit,
			Limit:   settings.MaxUserDaily,
			Message: fmt.Sprintf("actor 24h volume %s plus %s exceeds user daily limit %s", actorVol24h, amount, settings.MaxUserDaily),
		}
	}
	return nil
}
