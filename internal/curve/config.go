package curve

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingModel identifies the pricing formula an asset trades under.
type PricingModel string

const (
	ModelLegacy PricingModel = "legacy"
	ModelV3     PricingModel = "v3"
	ModelV4     PricingModel = "v4"
)

// ErrUnknownPricingModel is returned when a model has no curve constants,
// either because the tag is unrecognized or because the model (legacy) has no
// reproducible formula and may only be migrated away from.
var ErrUnknownPricingModel = fmt.Errorf("unknown or non-evaluable pricing model")

// Config is the immutable constant set for one pricing model.
type Config struct {
	Model                     PricingModel
	P0                        decimal.Decimal // price at zero tokens sold
	P1                        decimal.Decimal // price at CurveSupply tokens sold
	CurveSupply               decimal.Decimal
	TotalSupply               decimal.Decimal
	LpSupply                  decimal.Decimal
	GraduationThreshold       decimal.Decimal
	TradingFeePercent         decimal.Decimal
	CreatorFeePercent         decimal.Decimal // share of the trading fee
	PlatformFeePercent        decimal.Decimal // share of the trading fee
	LpPromptAllocationPercent decimal.Decimal
	LpLockDurationDays        int

	// Defaults applied when an asset has no SafetySettings row yet.
	DefaultMaxSingleTrade decimal.Decimal
	DefaultMaxDailyTrade  decimal.Decimal
	DefaultMaxUserDaily   decimal.Decimal

	// Migration dry-run warns when the price moves more than this percent.
	MigrationPriceTolerancePercent decimal.Decimal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var v3Config = Config{
	Model:                          ModelV3,
	P0:                             dec("0.00001"),
	P1:                             dec("0.0001"),
	CurveSupply:                    dec("800000000"),
	TotalSupply:                    dec("1000000000"),
	LpSupply:                       dec("200000000"),
	GraduationThreshold:            dec("42000"),
	TradingFeePercent:              dec("1"),
	CreatorFeePercent:              dec("50"),
	PlatformFeePercent:             dec("50"),
	LpPromptAllocationPercent:      dec("80"),
	LpLockDurationDays:             180,
	DefaultMaxSingleTrade:          dec("2000"),
	DefaultMaxDailyTrade:           dec("20000"),
	DefaultMaxUserDaily:            dec("5000"),
	MigrationPriceTolerancePercent: dec("5"),
}

var v4Config = Config{
	Model:                          ModelV4,
	P0:                             dec("0.00002"),
	P1:                             dec("0.0002"),
	CurveSupply:                    dec("750000000"),
	TotalSupply:                    dec("1000000000"),
	LpSupply:                       dec("250000000"),
	GraduationThreshold:            dec("60000"),
	TradingFeePercent:              dec("1"),
	CreatorFeePercent:              dec("40"),
	PlatformFeePercent:             dec("60"),
	LpPromptAllocationPercent:      dec("85"),
	LpLockDurationDays:             365,
	DefaultMaxSingleTrade:          dec("2000"),
	DefaultMaxDailyTrade:           dec("25000"),
	DefaultMaxUserDaily:            dec("6000"),
	MigrationPriceTolerancePercent: dec("5"),
}

// Resolve returns the constant set for a pricing model. Legacy assets have no
// curve constants; they can only appear as the source side of a migration.
func Resolve(model PricingModel) (Config, error) {
	switch model {
	case ModelV3:
		return v3Config, nil
	case ModelV4:
		return v4Config, nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPricingModel, model)
	}
}

// Evaluable reports whether the model has a reproducible curve formula.
func Evaluable(model PricingModel) bool {
	return model == ModelV3 || model == ModelV4
}
