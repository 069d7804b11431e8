package curve

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tolerance for round-trip comparisons after the big.Float sqrt
var tol = decimal.RequireFromString("0.000001")

func assetConfig(t *testing.T) Config {
	cfg, err := Resolve(ModelV3)
	require.NoError(t, err)
	return cfg
}

func TestPrice(t *testing.T) {
	cfg := assetConfig(t)

	t.Run("price at zero equals p0", func(t *testing.T) {
		p, err := Price(cfg, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, p.Equal(cfg.P0), "got %s", p)
	})

	t.Run("price at curve supply equals p1", func(t *testing.T) {
		p, err := Price(cfg, cfg.CurveSupply)
		require.NoError(t, err)
		assert.True(t, p.Equal(cfg.P1), "got %s", p)
	})

	t.Run("negative tokens sold rejected", func(t *testing.T) {
		_, err := Price(cfg, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrDomain)
	})

	t.Run("beyond curve supply rejected", func(t *testing.T) {
		_, err := Price(cfg, cfg.CurveSupply.Add(decimal.NewFromInt(1)))
		assert.ErrorIs(t, err, ErrDomain)
	})

	t.Run("strictly increasing", func(t *testing.T) {
		prev := decimal.NewFromInt(-1)
		for _, s := range []string{"0", "1000000", "100000000", "400000000", "800000000"} {
			p, err := Price(cfg, decimal.RequireFromString(s))
			require.NoError(t, err)
			assert.True(t, p.GreaterThan(prev), "price at %s not increasing", s)
			prev = p
		}
	})
}

func TestRaisedAt(t *testing.T) {
	cfg := assetConfig(t)

	t.Run("zero tokens raises zero", func(t *testing.T) {
		r, err := RaisedAt(cfg, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, r.IsZero())
	})

	t.Run("strictly increasing", func(t *testing.T) {
		prev := decimal.NewFromInt(-1)
		for _, s := range []string{"0", "1", "500000", "250000000", "800000000"} {
			r, err := RaisedAt(cfg, decimal.RequireFromString(s))
			require.NoError(t, err)
			assert.True(t, r.GreaterThan(prev), "raised at %s not increasing", s)
			prev = r
		}
	})

	t.Run("full curve raises trapezoid area", func(t *testing.T) {
		// integral of a linear ramp over [0, S] is (p0+p1)/2 * S = 44000
		r, err := RaisedAt(cfg, cfg.CurveSupply)
		require.NoError(t, err)
		assert.True(t, r.Equal(decimal.RequireFromString("44000")), "got %s", r)
	})
}

func TestTokensSoldFromRaised(t *testing.T) {
	cfg := assetConfig(t)

	t.Run("negative raised rejected", func(t *testing.T) {
		_, err := TokensSoldFromRaised(cfg, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrNegativeRaised)
	})

	t.Run("zero raised is zero sold", func(t *testing.T) {
		inv, err := TokensSoldFromRaised(cfg, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, inv.TokensSold.IsZero())
		assert.False(t, inv.OutOfRange)
	})

	t.Run("round trip", func(t *testing.T) {
		for _, s := range []string{"1", "12345", "1000000", "123456789", "799999999"} {
			sold := decimal.RequireFromString(s)
			raised, err := RaisedAt(cfg, sold)
			require.NoError(t, err)
			inv, err := TokensSoldFromRaised(cfg, raised)
			require.NoError(t, err)
			diff := inv.TokensSold.Sub(sold).Abs()
			assert.True(t, diff.LessThanOrEqual(tol), "round trip at %s drifted by %s", s, diff)
		}
	})

	t.Run("clamps above curve supply", func(t *testing.T) {
		inv, err := TokensSoldFromRaised(cfg, decimal.RequireFromString("50000"))
		require.NoError(t, err)
		assert.True(t, inv.TokensSold.Equal(cfg.CurveSupply))
		assert.True(t, inv.OutOfRange)
	})
}

func TestTokensFromPrompt(t *testing.T) {
	cfg := assetConfig(t)

	t.Run("zero prompt rejected", func(t *testing.T) {
		_, err := TokensFromPrompt(cfg, decimal.Zero, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("negative prompt rejected", func(t *testing.T) {
		_, err := TokensFromPrompt(cfg, decimal.Zero, decimal.NewFromInt(-5))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("buying 100 at genesis", func(t *testing.T) {
		res, err := TokensFromPrompt(cfg, decimal.Zero, decimal.NewFromInt(100))
		require.NoError(t, err)

		assert.True(t, res.NewPrice.GreaterThan(cfg.P0), "price must move above p0")
		assert.True(t, res.TokenAmount.Sign() > 0)
		assert.True(t, res.PriceImpactPercent.Sign() > 0)

		// token amount must satisfy raised(new_sold) == 100
		raised, err := RaisedAt(cfg, res.NewTokensSold)
		require.NoError(t, err)
		diff := raised.Sub(decimal.NewFromInt(100)).Abs()
		assert.True(t, diff.LessThanOrEqual(tol), "raised after buy drifted by %s", diff)
	})

	t.Run("average price between spot prices", func(t *testing.T) {
		before := decimal.RequireFromString("100000000")
		res, err := TokensFromPrompt(cfg, before, decimal.NewFromInt(500))
		require.NoError(t, err)

		pBefore, err := Price(cfg, before)
		require.NoError(t, err)
		assert.True(t, res.AveragePrice.GreaterThan(pBefore))
		assert.True(t, res.AveragePrice.LessThan(res.NewPrice))
	})
}

func TestPromptFromTokens(t *testing.T) {
	cfg := assetConfig(t)

	t.Run("selling below zero rejected", func(t *testing.T) {
		_, err := PromptFromTokens(cfg, decimal.NewFromInt(10), decimal.NewFromInt(11))
		assert.ErrorIs(t, err, ErrInsufficientSupplySold)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := PromptFromTokens(cfg, decimal.NewFromInt(10), decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("conservation without fees", func(t *testing.T) {
		// buy then sell back the same token amount returns the prompt,
		// up to inversion precision
		start := decimal.RequireFromString("50000000")
		prompt := decimal.NewFromInt(250)

		buy, err := TokensFromPrompt(cfg, start, prompt)
		require.NoError(t, err)

		sell, err := PromptFromTokens(cfg, buy.NewTokensSold, buy.TokenAmount)
		require.NoError(t, err)

		diff := sell.PromptAmount.Sub(prompt).Abs()
		assert.True(t, diff.LessThanOrEqual(tol), "round trip leaked %s", diff)
		assert.True(t, sell.PromptAmount.LessThanOrEqual(prompt.Add(tol)), "sell returned more than was paid in")
	})
}
