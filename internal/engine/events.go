package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Queue names consumed by the worker and the notification layer.
const (
	QueueFeeDistribution = "fee_distribution"
	QueueMarketEvents    = "market_events"
)

// Market event types published to QueueMarketEvents.
const (
	EventTradeCommitted      = "trade_committed"
	EventAssetGraduated      = "asset_graduated"
	EventMigrationCompleted  = "migration_completed"
	EventMigrationRolledBack = "migration_rolled_back"
)

// Publisher enqueues a message on a named queue. Satisfied by
// pkg/config.Publisher; nil-safe wrappers below let the engine run without a
// broker in tests.
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

// FeeDistributionJob is the payload the fee worker consumes.
type FeeDistributionJob struct {
	DistributionID uint            `json:"distribution_id"`
	TradeID        uint            `json:"trade_id"`
	AssetID        uint            `json:"asset_id"`
	CreatorID      string          `json:"creator_id"`
	CreatorFee     decimal.Decimal `json:"creator_fee"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
}

// MarketEvent is the observation payload for the notification layer. It has
// no write path back into pricing state.
type MarketEvent struct {
	Type      string          `json:"type"`
	AssetID   uint            `json:"asset_id"`
	TradeID   uint            `json:"trade_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Raised    decimal.Decimal `json:"funds_raised"`
	Graduated bool            `json:"graduated"`
	At        time.Time       `json:"at"`
}

func (e *Engine) publish(queue string, msg interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(queue, msg); err != nil {
		// out of the trade-commit failure domain: log and move on, the
		// pending FeeDistribution row is the source of truth for retries
		e.log.Warnf("publish to %s failed: %v", queue, err)
	}
}
