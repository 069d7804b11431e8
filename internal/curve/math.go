package curve

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Curve math for the linear pricing models. Price is linear in tokens sold,
//
//	price(s) = p0 + (p1-p0)*s/curveSupply
//
// and funds raised is its integral,
//
//	raised(s) = p0*s + (p1-p0)*s^2/(2*curveSupply)
//
// This package is the only producer of price / tokens-sold values; callers
// never derive them by hand.

var (
	ErrDomain                 = fmt.Errorf("tokens sold outside curve domain")
	ErrNegativeRaised         = fmt.Errorf("funds raised cannot be negative")
	ErrInvalidAmount          = fmt.Errorf("amount must be positive")
	ErrInsufficientSupplySold = fmt.Errorf("sell amount exceeds tokens sold")
)

const sqrtPrec = 256

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// BuyResult is the priced outcome of spending prompt on the curve.
type BuyResult struct {
	TokenAmount        decimal.Decimal
	NewTokensSold      decimal.Decimal
	NewPrice           decimal.Decimal
	AveragePrice       decimal.Decimal
	PriceImpactPercent decimal.Decimal
}

// SellResult is the priced outcome of returning tokens to the curve.
type SellResult struct {
	PromptAmount  decimal.Decimal
	NewTokensSold decimal.Decimal
	NewPrice      decimal.Decimal
	AveragePrice  decimal.Decimal
}

// InverseResult carries the clamped root of the raised->sold inversion.
// OutOfRange is set when the true root exceeds curveSupply, which means the
// asset should already have graduated.
type InverseResult struct {
	TokensSold decimal.Decimal
	OutOfRange bool
}

// Price evaluates the spot price at tokensSold.
func Price(cfg Config, tokensSold decimal.Decimal) (decimal.Decimal, error) {
	if tokensSold.IsNegative() || tokensSold.GreaterThan(cfg.CurveSupply) {
		return decimal.Zero, fmt.Errorf("%w: s=%s curve_supply=%s", ErrDomain, tokensSold, cfg.CurveSupply)
	}
	slope := cfg.P1.Sub(cfg.P0)
	return cfg.P0.Add(slope.Mul(tokensSold).Div(cfg.CurveSupply)), nil
}

// RaisedAt evaluates the cumulative funds raised after selling tokensSold.
func RaisedAt(cfg Config, tokensSold decimal.Decimal) (decimal.Decimal, error) {
	if tokensSold.IsNegative() || tokensSold.GreaterThan(cfg.CurveSupply) {
		return decimal.Zero, fmt.Errorf("%w: s=%s curve_supply=%s", ErrDomain, tokensSold, cfg.CurveSupply)
	}
	slope := cfg.P1.Sub(cfg.P0)
	linear := cfg.P0.Mul(tokensSold)
	quadratic := slope.Mul(tokensSold).Mul(tokensSold).Div(two.Mul(cfg.CurveSupply))
	return linear.Add(quadratic), nil
}

// TokensSoldFromRaised inverts raised(s) in closed form. With
// a = (p1-p0)/(2*curveSupply) and b = p0 the positive root of
// a*s^2 + b*s - raised = 0 is s = (-b + sqrt(b^2 + 4*a*raised)) / (2*a).
// The result is clamped to [0, curveSupply]; OutOfRange reports clamping at
// the top end.
func TokensSoldFromRaised(cfg Config, raised decimal.Decimal) (InverseResult, error) {
	if raised.IsNegative() {
		return InverseResult{}, fmt.Errorf("%w: raised=%s", ErrNegativeRaised, raised)
	}
	if raised.IsZero() {
		return InverseResult{TokensSold: decimal.Zero}, nil
	}

	a := cfg.P1.Sub(cfg.P0).Div(two.Mul(cfg.CurveSupply))
	b := cfg.P0

	var root decimal.Decimal
	if a.IsZero() {
		// flat curve degenerates to raised = p0*s
		root = raised.Div(b)
	} else {
		disc := b.Mul(b).Add(decimal.NewFromInt(4).Mul(a).Mul(raised))
		root = sqrt(disc).Sub(b).Div(two.Mul(a))
	}

	if root.IsNegative() {
		root = decimal.Zero
	}
	if root.GreaterThan(cfg.CurveSupply) {
		return InverseResult{TokensSold: cfg.CurveSupply, OutOfRange: true}, nil
	}
	return InverseResult{TokensSold: root}, nil
}

// TokensFromPrompt prices a buy: spending promptAmount moves the accumulator
// from raised(tokensSoldBefore) to raised(tokensSoldBefore)+promptAmount and
// the token amount is the difference of the inverted positions.
func TokensFromPrompt(cfg Config, tokensSoldBefore, promptAmount decimal.Decimal) (BuyResult, error) {
	if promptAmount.Sign() <= 0 {
		return BuyResult{}, fmt.Errorf("%w: prompt=%s", ErrInvalidAmount, promptAmount)
	}
	raisedBefore, err := RaisedAt(cfg, tokensSoldBefore)
	if err != nil {
		return BuyResult{}, err
	}
	priceBefore, err := Price(cfg, tokensSoldBefore)
	if err != nil {
		return BuyResult{}, err
	}

	inv, err := TokensSoldFromRaised(cfg, raisedBefore.Add(promptAmount))
	if err != nil {
		return BuyResult{}, err
	}
	newSold := inv.TokensSold

	tokenAmount := newSold.Sub(tokensSoldBefore)
	newPrice, err := Price(cfg, newSold)
	if err != nil {
		return BuyResult{}, err
	}

	avgPrice := decimal.Zero
	if tokenAmount.Sign() > 0 {
		avgPrice = promptAmount.Div(tokenAmount)
	}
	impact := newPrice.Sub(priceBefore).Div(priceBefore).Mul(hundred)

	return BuyResult{
		TokenAmount:        tokenAmount,
		NewTokensSold:      newSold,
		NewPrice:           newPrice,
		AveragePrice:       avgPrice,
		PriceImpactPercent: impact,
	}, nil
}

// PromptFromTokens prices a sell: returning tokenAmount tokens walks the
// accumulator back to raised(tokensSoldBefore - tokenAmount).
func PromptFromTokens(cfg Config, tokensSoldBefore, tokenAmount decimal.Decimal) (SellResult, error) {
	if tokenAmount.Sign() <= 0 {
		return SellResult{}, fmt.Errorf("%w: tokens=%s", ErrInvalidAmount, tokenAmount)
	}
	if tokenAmount.GreaterThan(tokensSoldBefore) {
		return SellResult{}, fmt.Errorf("%w: selling %s with only %s sold", ErrInsufficientSupplySold, tokenAmount, tokensSoldBefore)
	}

	newSold := tokensSoldBefore.Sub(tokenAmount)
	raisedBefore, err := RaisedAt(cfg, tokensSoldBefore)
	if err != nil {
		return SellResult{}, err
	}
	raisedAfter, err := RaisedAt(cfg, newSold)
	if err != nil {
		return SellResult{}, err
	}
	newPrice, err := Price(cfg, newSold)
	if err != nil {
		return SellResult{}, err
	}

	prompt := raisedBefore.Sub(raisedAfter)
	avgPrice := decimal.Zero
	if tokenAmount.Sign() > 0 {
		avgPrice = prompt.Div(tokenAmount)
	}

	return SellResult{
		PromptAmount:  prompt,
		NewTokensSold: newSold,
		NewPrice:      newPrice,
		AveragePrice:  avgPrice,
	}, nil
}

func sqrt(x decimal.Decimal) decimal.Decimal {
	if x.Sign() < 0 {
		panic("sqrt on negative decimal")
	}
	out, _ := decimal.NewFromString(
		new(big.Float).SetPrec(sqrtPrec).Sqrt(
			x.BigFloat().SetPrec(sqrtPrec),
		).Text('f', -1),
	)
	return out
}
