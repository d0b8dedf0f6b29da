package exchange

import (
	"context"
	"fmt"
	"strconv"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// BybitExecutor submits orders through the Bybit v5 unified trading
// API.
type BybitExecutor struct {
	client   *bybit_api.Client
	category string
	env      string
}

// NewBybitExecutor creates an executor. Credentials come from the
// environment, the endpoint from the exchange configuration.
func NewBybitExecutor(apiKey, apiSecret string, cfg config.ExchangeConfig) *BybitExecutor {
	baseURL := bybit_api.MAINNET
	env := "mainnet"
	if cfg.Demo {
		baseURL = "https://api-demo.bybit.com"
		env = "demo"
	} else if cfg.Testnet {
		baseURL = bybit_api.TESTNET
		env = "testnet"
	}

	category := cfg.Category
	if category == "" {
		category = "linear"
	}

	return &BybitExecutor{
		client:   bybit_api.NewBybitHttpClient(apiKey, apiSecret, bybit_api.WithBaseURL(baseURL)),
		category: category,
		env:      env,
	}
}

// Name identifies the executor in logs.
func (e *BybitExecutor) Name() string {
	return fmt.Sprintf("bybit-%s-%s", e.category, e.env)
}

// SubmitEntry places a market entry with the trade's stop-loss and
// take-profit attached.
func (e *BybitExecutor) SubmitEntry(ctx context.Context, t *trade.Trade, symbol string) (string, error) {
	params := map[string]interface{}{
		"category":   e.category,
		"symbol":     symbol,
		"side":       orderSide(t.Direction),
		"orderType":  "Market",
		"qty":        formatQty(t.Quantity),
		"orderLinkId": t.ID,
		"takeProfit": formatPrice(t.TakeProfit),
		"stopLoss":   formatPrice(t.StopLoss),
	}

	result, err := e.client.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return "", boterrors.NewOrderError("bybit", err)
	}
	return orderIDFromResult(result)
}

// SubmitExit places a reduce-only market order closing the position.
func (e *BybitExecutor) SubmitExit(ctx context.Context, t *trade.Trade, symbol string) (string, error) {
	params := map[string]interface{}{
		"category":   e.category,
		"symbol":     symbol,
		"side":       orderSide(t.Direction.Opposite()),
		"orderType":  "Market",
		"qty":        formatQty(t.Quantity),
		"reduceOnly": true,
	}

	result, err := e.client.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return "", boterrors.NewOrderError("bybit", err)
	}
	return orderIDFromResult(result)
}

func orderSide(direction types.Side) string {
	if direction == types.SideShort {
		return "Sell"
	}
	return "Buy"
}

func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', 6, 64)
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 4, 64)
}

func orderIDFromResult(result *bybit_api.ServerResponse) (string, error) {
	if result.RetCode != 0 {
		return "", boterrors.NewOrderError("bybit", fmt.Errorf("retCode %d: %s", result.RetCode, result.RetMsg))
	}
	if data, ok := result.Result.(map[string]interface{}); ok {
		if id, ok := data["orderId"].(string); ok {
			return id, nil
		}
	}
	return "", boterrors.NewOrderError("bybit", fmt.Errorf("order id missing in response"))
}
