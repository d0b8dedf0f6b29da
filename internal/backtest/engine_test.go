package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func backtestConfig() *config.Config {
	cfg := config.Default()
	cfg.Symbol = "BTCUSDT"
	cfg.Interval = "1m"
	cfg.Filters.HeikinAshi = true
	cfg.Strategy.EMAPeriod = 20
	cfg.Strategy.MTFInterval = "5m"
	return cfg
}

// declineRallyBars produces a long slide that pins every RSI period in
// oversold territory, followed by a steady rally that flips the Heikin
// Ashi color and walks price through the target.
func declineRallyBars(n int) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	price := 200.0
	for i := range bars {
		var next float64
		if i < n/2 {
			next = price - 0.2
		} else {
			next = price + 0.3
		}
		bars[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      max(price, next) + 0.05,
			Low:       min(price, next) - 0.05,
			Close:     next,
			Volume:    1000,
		}
		price = next
	}
	return bars
}

func TestRunner_DeclineRallyProducesWinningTrade(t *testing.T) {
	runner := NewRunner(backtestConfig())

	results, err := runner.Run(declineRallyBars(600))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, results.SignalsArmed, 1, "oversold slide must arm a long")
	require.GreaterOrEqual(t, results.TotalTrades, 1, "rally must confirm and resolve a trade")
	assert.Greater(t, results.EndBalance, results.StartBalance, "rally trade should win")

	first := results.Trades[0]
	assert.Equal(t, types.SideLong, first.Direction)
	assert.Less(t, first.StopLoss, first.EntryPrice)
	assert.Greater(t, first.TakeProfit, first.EntryPrice)
}

func TestRunner_ResultsCoherence(t *testing.T) {
	runner := NewRunner(backtestConfig())

	results, err := runner.Run(declineRallyBars(600))
	require.NoError(t, err)

	assert.Equal(t, 600, results.Bars)
	assert.InDelta(t, results.StartBalance+results.TotalPnL, results.EndBalance, 1e-9)
	assert.Equal(t, results.TotalTrades, len(results.Trades))
	assert.GreaterOrEqual(t, results.WinRate, 0.0)
	assert.LessOrEqual(t, results.WinRate, 1.0)
	assert.GreaterOrEqual(t, results.MaxDrawdown, 0.0)
	assert.Equal(t, results.Wins+results.Losses,
		results.TotalTrades-countZeroPnL(results))
}

func countZeroPnL(r *Results) int {
	n := 0
	for _, t := range r.Trades {
		if t.PnL == 0 {
			n++
		}
	}
	return n
}

func TestRunner_DeterministicReplay(t *testing.T) {
	bars := declineRallyBars(600)

	first, err := NewRunner(backtestConfig()).Run(bars)
	require.NoError(t, err)
	second, err := NewRunner(backtestConfig()).Run(bars)
	require.NoError(t, err)

	require.Len(t, second.Trades, len(first.Trades))
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		a.ID, b.ID = "", ""
		assert.Equal(t, a, b)
	}
	assert.Equal(t, first.EndBalance, second.EndBalance)
}

func TestRunner_RejectsEmptyData(t *testing.T) {
	_, err := NewRunner(backtestConfig()).Run(nil)
	require.Error(t, err)
	assert.Equal(t, boterrors.ErrorCategoryData, boterrors.CategoryOf(err))
}

func TestRunner_RejectsOutOfOrderBars(t *testing.T) {
	bars := declineRallyBars(10)
	bars[5].Timestamp = bars[3].Timestamp

	_, err := NewRunner(backtestConfig()).Run(bars)
	require.Error(t, err)
	assert.Equal(t, boterrors.ErrorCategoryData, boterrors.CategoryOf(err))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, maxDrawdown(nil))
	assert.Equal(t, 0.0, maxDrawdown([]float64{100, 110, 120}))
	assert.InDelta(t, 0.25, maxDrawdown([]float64{100, 120, 90, 110}), 1e-9)
	assert.InDelta(t, 0.5, maxDrawdown([]float64{100, 50, 80}), 1e-9)
}
