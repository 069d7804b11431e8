package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Engine orchestrates curve math, admission gates and atomic commits against
// the asset table.
type Engine struct {
	db     *gorm.DB
	events Publisher
	locks  *AssetLocks
	log    *logrus.Logger
	now    func() time.Time
}

func New(db *gorm.DB, events Publisher) *Engine {
	return &Engine{
		db:     db,
		events: events,
		locks:  NewAssetLocks(),
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
}

// TradeRequest is the execute-trade input. Amount is prompt for buys and
// tokens for sells. ExpectedPrice/MaxSlippagePercent bound the commit-time
// average price.
type TradeRequest struct {
	AssetID            uint
	ActorID            string
	Direction          string
	Amount             decimal.Decimal
	ExpectedPrice      decimal.Decimal
	MaxSlippagePercent decimal.Decimal
}

// TradeResult is the priced outcome of a committed trade.
type TradeResult struct {
	TradeID      uint            `json:"trade_id"`
	TokenAmount  decimal.Decimal `json:"token_amount"`
	PromptAmount decimal.Decimal `json:"prompt_amount"`
	NewPrice     decimal.Decimal `json:"new_price"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
	CreatorFee   decimal.Decimal `json:"creator_fee"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	Graduated    bool            `json:"graduated"`
}

type feeSplit struct {
	total    decimal.Decimal
	creator  decimal.Decimal
	platform decimal.Decimal
}

// splitFee carves the trading fee out of the prompt amount and divides it
// between creator and platform per config.
func splitFee(cfg curve.Config, promptAmount decimal.Decimal) feeSplit {
	total := promptAmount.Mul(cfg.TradingFeePercent).Div(hundred)
	creator := total.Mul(cfg.CreatorFeePercent).Div(hundred)
	return feeSplit{total: total, creator: creator, platform: total.Sub(creator)}
}

// slippageExceeded compares the realized average price with the caller's
// expectation. A zero expected price disables the check.
func slippageExceeded(computed, expected, maxPercent decimal.Decimal) bool {
	if expected.Sign() <= 0 {
		return false
	}
	deviation := computed.Sub(expected).Abs().Div(expected).Mul(hundred)
	return deviation.GreaterThan(maxPercent)
}

// admissionAmount converts a trade to its prompt value for limit checks.
// Buys already arrive in prompt units; sells arrive as token quantities and
// are valued through the curve at the current position.
func admissionAmount(cfg curve.Config, tokensSold decimal.Decimal, direction string, amount decimal.Decimal) (decimal.Decimal, error) {
	if direction != models.TradeDirectionSell {
		return amount, nil
	}
	sell, err := curve.PromptFromTokens(cfg, tokensSold, amount)
	if err != nil {
		return decimal.Zero, err
	}
	return sell.PromptAmount, nil
}

// effectiveSettings returns the asset's safety settings or the model defaults
// when no row exists.
func effectiveSettings(asset *models.Asset, cfg curve.Config) models.SafetySettings {
	if asset.SafetySettings != nil {
		return *asset.SafetySettings
	}
	return models.SafetySettings{
		AssetID:        asset.ID,
		MaxSingleTrade: cfg.DefaultMaxSingleTrade,
		MaxDailyTrade:  cfg.DefaultMaxDailyTrade,
		MaxUserDaily:   cfg.DefaultMaxUserDaily,
	}
}

// ExecuteTrade runs the full gate sequence and commits the trade atomically.
// The first failing gate aborts with no state mutated. Returns *TradeError
// for domain/admission/state failures.
func (e *Engine) ExecuteTrade(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	if req.Direction != models.TradeDirectionBuy && req.Direction != models.TradeDirectionSell {
		return nil, &TradeError{Code: CodeInvalidAmount, Message: fmt.Sprintf("unknown direction %q", req.Direction)}
	}
	if req.Amount.Sign() <= 0 {
		return nil, &TradeError{Code: CodeInvalidAmount, Message: "amount must be positive"}
	}
	now := e.now()

	// Gate 1: load asset and settings.
	var asset models.Asset
	if err := e.db.Preload("SafetySettings").First(&asset, req.AssetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAssetNotFound(req.AssetID)
		}
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset.IsGraduated {
		return nil, errAssetGraduated(asset.ID)
	}
	cfg, err := curve.Resolve(curve.PricingModel(asset.PricingModel))
	if err != nil {
		return nil, &TradeError{Code: CodeUnknownPricingModel, Message: err.Error()}
	}

	// Gate 2: creation lock.
	if status := CheckCreationLock(&asset, req.ActorID, now); !status.CanTrade {
		return nil, errTradingLocked(status.Remaining)
	}

	// Gate 3: safety limits against trailing 24h volume. Limits and volumes
	// are prompt-denominated, so sells are valued through the curve first.
	promptAmount, err := admissionAmount(cfg, asset.TokensSold, req.Direction, req.Amount)
	if err != nil {
		return nil, &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
	}
	assetVol, err := TrailingAssetVolume(e.db, asset.ID, now)
	if err != nil {
		return nil, fmt.Errorf("asset volume: %w", err)
	}
	actorVol, err := TrailingActorVolume(e.db, asset.ID, req.ActorID, now)
	if err != nil {
		return nil, fmt.Errorf("actor volume: %w", err)
	}
	settings := effectiveSettings(&asset, cfg)
	if rej := ValidateTrade(promptAmount, settings, assetVol, actorVol); rej != nil {
		e.log.WithFields(logrus.Fields{
			"asset_id": asset.ID,
			"actor_id": req.ActorID,
			"reason":   rej.Reason,
			"amount":   promptAmount,
		}).Info("trade rejected by safety validator")
		return nil, &TradeError{
			Code:    CodeSafetyLimitExceeded,
			Reason:  rej.Reason,
			Limit:   rej.Limit,
			Message: rej.Message,
		}
	}

	// Gates 4-7 run under the asset's exclusive lock.
	if err := e.locks.Acquire(ctx, req.AssetID); err != nil {
		return nil, &TradeError{Code: CodeLockWaitTimeout, Message: err.Error()}
	}

	result, job, event, err := e.commitTrade(req, now)
	if err != nil {
		return nil, err
	}

	// Side effects are queued outside the lock and outside the transaction.
	e.publish(QueueFeeDistribution, job)
	e.publish(QueueMarketEvents, event)
	if result.Graduated {
		e.publish(QueueMarketEvents, &MarketEvent{
			Type: EventAssetGraduated, AssetID: req.AssetID,
			Price: result.NewPrice, Graduated: true, At: now,
		})
	}
	return result, nil
}

// commitTrade holds the critical section: re-read the row FOR UPDATE, price
// the trade, check slippage, and write asset + trade + fee record in one
// transaction. The caller has acquired the asset lock; release is deferred
// here so a panic in the transaction cannot leak it.
func (e *Engine) commitTrade(req TradeRequest, now time.Time) (*TradeResult, *FeeDistributionJob, *MarketEvent, error) {
	defer e.locks.Release(req.AssetID)

	var (
		result TradeResult
		job    FeeDistributionJob
		event  MarketEvent
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&asset, req.AssetID).Error; err != nil {
			return fmt.Errorf("lock asset row: %w", err)
		}
		if asset.IsGraduated {
			return errAssetGraduated(asset.ID)
		}
		cfg, err := curve.Resolve(curve.PricingModel(asset.PricingModel))
		if err != nil {
			return &TradeError{Code: CodeUnknownPricingModel, Message: err.Error()}
		}

		tokensSoldBefore := asset.TokensSold
		trade := models.Trade{
			AssetID:          asset.ID,
			ActorID:          req.ActorID,
			Direction:        req.Direction,
			TokensSoldBefore: tokensSoldBefore,
		}

		switch req.Direction {
		case models.TradeDirectionBuy:
			// the full prompt amount moves the accumulator; the fee split is
			// a side output settled by the distribution worker
			fees := splitFee(cfg, req.Amount)

			buy, err := curve.TokensFromPrompt(cfg, tokensSoldBefore, req.Amount)
			if err != nil {
				return &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
			}
			if slippageExceeded(buy.AveragePrice, req.ExpectedPrice, req.MaxSlippagePercent) {
				return errSlippage(buy.AveragePrice, req.ExpectedPrice, req.MaxSlippagePercent)
			}

			asset.FundsRaised = asset.FundsRaised.Add(req.Amount)
			asset.TokensSold = buy.NewTokensSold
			asset.CurrentPrice = buy.NewPrice

			trade.InputAmount = req.Amount
			trade.OutputAmount = buy.TokenAmount
			trade.PricePerToken = buy.AveragePrice
			trade.FeeAmount = fees.total
			trade.CreatorFee = fees.creator
			trade.PlatformFee = fees.platform

			result = TradeResult{
				TokenAmount:  buy.TokenAmount,
				PromptAmount: req.Amount,
				NewPrice:     buy.NewPrice,
				FeeAmount:    fees.total,
				CreatorFee:   fees.creator,
				PlatformFee:  fees.platform,
			}

		case models.TradeDirectionSell:
			sell, err := curve.PromptFromTokens(cfg, tokensSoldBefore, req.Amount)
			if err != nil {
				if errors.Is(err, curve.ErrInsufficientSupplySold) {
					return &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
				}
				return &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
			}
			fees := splitFee(cfg, sell.PromptAmount)
			netOut := sell.PromptAmount.Sub(fees.total)

			if slippageExceeded(sell.AveragePrice, req.ExpectedPrice, req.MaxSlippagePercent) {
				return errSlippage(sell.AveragePrice, req.ExpectedPrice, req.MaxSlippagePercent)
			}

			asset.FundsRaised = asset.FundsRaised.Sub(sell.PromptAmount)
			asset.TokensSold = sell.NewTokensSold
			asset.CurrentPrice = sell.NewPrice

			trade.InputAmount = req.Amount
			trade.OutputAmount = netOut
			trade.PricePerToken = sell.AveragePrice
			trade.FeeAmount = fees.total
			trade.CreatorFee = fees.creator
			trade.PlatformFee = fees.platform

			result = TradeResult{
				TokenAmount:  req.Amount,
				PromptAmount: netOut,
				NewPrice:     sell.NewPrice,
				FeeAmount:    fees.total,
				CreatorFee:   fees.creator,
				PlatformFee:  fees.platform,
			}
		}

		// Graduation latch, part of the same commit.
		if curve.IsGraduated(asset.FundsRaised, asset.GraduationThreshold) {
			asset.IsGraduated = true
			result.Graduated = true
		}

		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).Updates(map[string]interface{}{
			"funds_raised":  asset.FundsRaised,
			"tokens_sold":   asset.TokensSold,
			"current_price": asset.CurrentPrice,
			"is_graduated":  asset.IsGraduated,
		}).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		if err := tx.Create(&trade).Error; err != nil {
			return fmt.Errorf("append trade: %w", err)
		}
		result.TradeID = trade.ID

		dist := models.FeeDistribution{
			TradeID:     trade.ID,
			AssetID:     asset.ID,
			CreatorID:   asset.CreatorID,
			CreatorFee:  trade.CreatorFee,
			PlatformFee: trade.PlatformFee,
			Status:      models.FeeDistributionPending,
		}
		if err := tx.Create(&dist).Error; err != nil {
			return fmt.Errorf("create fee distribution: %w", err)
		}

		job = FeeDistributionJob{
			DistributionID: dist.ID,
			TradeID:        trade.ID,
			AssetID:        asset.ID,
			CreatorID:      asset.CreatorID,
			CreatorFee:     trade.CreatorFee,
			PlatformFee:    trade.PlatformFee,
		}
		event = MarketEvent{
			Type:      EventTradeCommitted,
			AssetID:   asset.ID,
			TradeID:   trade.ID,
			Price:     asset.CurrentPrice,
			Raised:    asset.FundsRaised,
			Graduated: asset.IsGraduated,
			At:        now,
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return &result, &job, &event, nil
}

// ConfirmSettlement attaches the external settlement reference to a committed
// trade. The only permitted post-creation write to a ledger row.
func (e *Engine) ConfirmSettlement(tradeID uint, ref string) error {
	result := e.db.Model(&models.Trade{}).
		Where("id = ? AND settlement_ref IS NULL", tradeID).
		Update("settlement_ref", ref)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trade %d not found or already settled", tradeID)
	}
	return nil
}
