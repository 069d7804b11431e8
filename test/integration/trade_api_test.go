package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TradeRequest struct {
	AssetID            uint            `json:"asset_id"`
	ActorID            string          `json:"actor_id"`
	Direction          string          `json:"direction"`
	Amount             decimal.Decimal `json:"amount"`
	ExpectedPrice      decimal.Decimal `json:"expected_price,omitempty"`
	MaxSlippagePercent decimal.Decimal `json:"max_slippage_percent,omitempty"`
}

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

type QuoteRequest struct {
	AssetID   uint            `json:"asset_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

type Quote struct {
	AssetID      uint            `json:"asset_id"`
	Direction    string          `json:"direction"`
	TokenAmount  decimal.Decimal `json:"token_amount"`
	PromptAmount decimal.Decimal `json:"prompt_amount"`
	AveragePrice decimal.Decimal `json:"average_price"`
	NewPrice     decimal.Decimal `json:"new_price"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
}

// postTrade sends the trade with the actor header the rate limiter keys on,
// so parallel test actors do not share one bucket.
func postTrade(t *testing.T, request TradeRequest) *http.Response {
	t.Helper()
	payload, err := json.Marshal(request)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, BaseURL+"/trades", bytes.NewBuffer(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", request.ActorID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getAsset(t *testing.T, id uint) Asset {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/assets/%d", BaseURL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var asset Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&asset))
	return asset
}

func TestTradeAPI(t *testing.T) {
	asset := createAsset(t, AssetRequest{
		Symbol:       uniqueSymbol("TRD"),
		Name:         "Trade API Test",
		PricingModel: "v3",
		CreatorID:    "creator-trade-test",
	})
	var buyTokens decimal.Decimal
	var firstTradeID uint

	t.Run("Quote Buy", func(t *testing.T) {
		resp := postJSON(t, "/trades/quote", QuoteRequest{
			AssetID:   asset.ID,
			Direction: "buy",
			Amount:    decimal.NewFromInt(1000),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var quote Quote
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&quote))
		assert.Equal(t, asset.ID, quote.AssetID)
		assert.True(t, quote.TokenAmount.Sign() > 0)
		// 1% trading fee on a 1000 prompt spend
		assert.True(t, quote.FeeAmount.Equal(decimal.NewFromInt(10)))
		assert.True(t, quote.NewPrice.GreaterThan(decimal.RequireFromString("0.00001")))
	})

	t.Run("Execute Buy", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-trade-1",
			Direction: "buy",
			Amount:    decimal.NewFromInt(1000),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result TradeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		firstTradeID = result.TradeID
		buyTokens = result.TokenAmount
		assert.NotZero(t, result.TradeID)
		assert.True(t, result.TokenAmount.Sign() > 0)
		assert.True(t, result.FeeAmount.Equal(decimal.NewFromInt(10)))
		// v3 splits the fee 50/50 between creator and platform
		assert.True(t, result.CreatorFee.Equal(decimal.NewFromInt(5)))
		assert.True(t, result.PlatformFee.Equal(decimal.NewFromInt(5)))
		assert.False(t, result.Graduated)

		// the accumulator absorbs the full prompt; the fee is side accounting
		after := getAsset(t, asset.ID)
		assert.True(t, after.FundsRaised.Equal(decimal.NewFromInt(1000)))
		assert.True(t, after.TokensSold.Equal(result.TokenAmount))
	})

	t.Run("Execute Sell", func(t *testing.T) {
		half := buyTokens.Div(decimal.NewFromInt(2))
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-trade-1",
			Direction: "sell",
			Amount:    half,
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result TradeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.PromptAmount.Sign() > 0)
		assert.True(t, result.PromptAmount.LessThan(decimal.NewFromInt(1000)))

		after := getAsset(t, asset.ID)
		assert.True(t, after.TokensSold.Equal(buyTokens.Sub(half)))
	})

	t.Run("Sell More Than Sold", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-trade-1",
			Direction: "sell",
			Amount:    decimal.NewFromInt(999999999),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "INVALID_AMOUNT", errResp.Code)
	})

	t.Run("Unknown Direction", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-trade-1",
			Direction: "hold",
			Amount:    decimal.NewFromInt(10),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Trade On Non-existent Asset", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   99999999,
			ActorID:   "actor-trade-1",
			Direction: "buy",
			Amount:    decimal.NewFromInt(10),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var errResp ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "ASSET_NOT_FOUND", errResp.Code)
	})

	t.Run("Tight Slippage Rejected", func(t *testing.T) {
		// expected price far below the live price with a tiny tolerance
		resp := postTrade(t, TradeRequest{
			AssetID:            asset.ID,
			ActorID:            "actor-trade-1",
			Direction:          "buy",
			Amount:             decimal.NewFromInt(1000),
			ExpectedPrice:      decimal.RequireFromString("0.000001"),
			MaxSlippagePercent: decimal.RequireFromString("0.1"),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "SLIPPAGE_EXCEEDED", errResp.Code)
	})

	t.Run("List Trades", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/assets/%d/trades?page=1&page_size=10", BaseURL, asset.ID))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response struct {
			Data []struct {
				ID        uint   `json:"id"`
				Direction string `json:"direction"`
			} `json:"data"`
			Pagination struct {
				TotalCount int64 `json:"total_count"`
			} `json:"pagination"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
		assert.Equal(t, int64(2), response.Pagination.TotalCount)
		// newest first
		assert.Equal(t, "sell", response.Data[0].Direction)
	})

	t.Run("Confirm Settlement", func(t *testing.T) {
		resp := sendJSON(t, http.MethodPatch, fmt.Sprintf("/trades/%d/settlement", firstTradeID), map[string]string{
			"settlement_ref": "settle-ref-0001",
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Confirm Settlement Twice", func(t *testing.T) {
		resp := sendJSON(t, http.MethodPatch, fmt.Sprintf("/trades/%d/settlement", firstTradeID), map[string]string{
			"settlement_ref": "settle-ref-0002",
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGraduationScenario(t *testing.T) {
	asset := createAsset(t, AssetRequest{
		Symbol:       uniqueSymbol("GRD"),
		Name:         "Graduation Test",
		PricingModel: "v3",
		CreatorID:    "creator-grad-test",
	})

	// lift the default limits so a threshold-crossing buy is admissible
	t.Run("Raise Safety Limits", func(t *testing.T) {
		resp := sendJSON(t, http.MethodPut, fmt.Sprintf("/safety-settings/asset/%d", asset.ID), map[string]interface{}{
			"max_single_trade": 100000,
			"max_daily_trade":  1000000,
			"max_user_daily":   1000000,
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Buy Below Threshold", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-grad-1",
			Direction: "buy",
			Amount:    decimal.NewFromInt(1000),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result TradeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.False(t, result.Graduated)
	})

	t.Run("Crossing Buy Graduates", func(t *testing.T) {
		// buys sum to exactly the 42000 threshold; the crossing commit
		// must flip the latch
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-grad-2",
			Direction: "buy",
			Amount:    decimal.NewFromInt(41000),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result TradeResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Graduated)

		after := getAsset(t, asset.ID)
		assert.True(t, after.IsGraduated)
		assert.True(t, after.FundsRaised.Equal(decimal.NewFromInt(42000)))
	})

	t.Run("Progress Capped At Hundred", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/assets/%d/progress", BaseURL, asset.ID))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var progress struct {
			ProgressPercent decimal.Decimal `json:"progress_percent"`
			Remaining       decimal.Decimal `json:"remaining"`
			IsGraduated     bool            `json:"is_graduated"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&progress))
		assert.True(t, progress.ProgressPercent.Equal(decimal.NewFromInt(100)))
		assert.True(t, progress.Remaining.IsZero())
		assert.True(t, progress.IsGraduated)
	})

	t.Run("Trade After Graduation Rejected", func(t *testing.T) {
		resp := postTrade(t, TradeRequest{
			AssetID:   asset.ID,
			ActorID:   "actor-grad-1",
			Direction: "buy",
			Amount:    decimal.NewFromInt(100),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "ASSET_GRADUATED", errResp.Code)
	})

	t.Run("Quote After Graduation Rejected", func(t *testing.T) {
		resp := postJSON(t, "/trades/quote", QuoteRequest{
			AssetID:   asset.ID,
			Direction: "buy",
			Amount:    decimal.NewFromInt(100),
		})
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
