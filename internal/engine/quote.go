package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/models"
)

// Quote is a read-only priced preview. No lock is taken; a trade in flight is
// invisible until it commits.
type Quote struct {
	AssetID            uint            `json:"asset_id"`
	Direction          string          `json:"direction"`
	TokenAmount        decimal.Decimal `json:"token_amount"`
	PromptAmount       decimal.Decimal `json:"prompt_amount"`
	AveragePrice       decimal.Decimal `json:"average_price"`
	NewPrice           decimal.Decimal `json:"new_price"`
	PriceImpactPercent decimal.Decimal `json:"price_impact_percent"`
	FeeAmount          decimal.Decimal `json:"fee_amount"`
}

// GetQuote prices a prospective trade against the current committed snapshot.
func (e *Engine) GetQuote(assetID uint, direction string, amount decimal.Decimal) (*Quote, error) {
	var asset models.Asset
	if err := e.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAssetNotFound(assetID)
		}
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset.IsGraduated {
		return nil, errAssetGraduated(assetID)
	}
	cfg, err := curve.Resolve(curve.PricingModel(asset.PricingModel))
	if err != nil {
		return nil, &TradeError{Code: CodeUnknownPricingModel, Message: err.Error()}
	}

	switch direction {
	case models.TradeDirectionBuy:
		fees := splitFee(cfg, amount)
		buy, err := curve.TokensFromPrompt(cfg, asset.TokensSold, amount)
		if err != nil {
			return nil, &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
		}
		return &Quote{
			AssetID:            assetID,
			Direction:          direction,
			TokenAmount:        buy.TokenAmount,
			PromptAmount:       amount,
			AveragePrice:       buy.AveragePrice,
			NewPrice:           buy.NewPrice,
			PriceImpactPercent: buy.PriceImpactPercent,
			FeeAmount:          fees.total,
		}, nil

	case models.TradeDirectionSell:
		sell, err := curve.PromptFromTokens(cfg, asset.TokensSold, amount)
		if err != nil {
			return nil, &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
		}
		fees := splitFee(cfg, sell.PromptAmount)
		return &Quote{
			AssetID:      assetID,
			Direction:    direction,
			TokenAmount:  amount,
			PromptAmount: sell.PromptAmount.Sub(fees.total),
			AveragePrice: sell.AveragePrice,
			NewPrice:     sell.NewPrice,
			FeeAmount:    fees.total,
		}, nil

	default:
		return nil, &TradeError{Code: CodeInvalidAmount, Message: fmt.Sprintf("unknown direction %q", direction)}
	}
}

// GetProgress returns graduation progress for an asset.
func (e *Engine) GetProgress(assetID uint) (*curve.GraduationProgress, bool, error) {
	var asset models.Asset
	if err := e.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errAssetNotFound(assetID)
		}
		return nil, false, fmt.Errorf("load asset: %w", err)
	}
	progress := curve.Progress(asset.FundsRaised, asset.GraduationThreshold)
	return &progress, asset.IsGraduated, nil
}
