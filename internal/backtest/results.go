package backtest

import (
	"time"

	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// Results aggregates one backtest run.
type Results struct {
	Symbol   string
	Interval string

	Start time.Time
	End   time.Time
	Bars  int

	StartBalance float64
	EndBalance   float64
	TotalPnL     float64

	TotalTrades  int
	Wins         int
	Losses       int
	ManualCloses int

	WinRate      float64 // fraction of closed trades with positive PnL
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	MaxDrawdown  float64 // peak-to-trough fraction of the equity curve

	SignalsArmed   int
	SignalsDropped int
	Emergencies    int

	Trades    []trade.Trade
	RiskState risk.State
	Audit     []risk.AuditEntry
}

// finalize derives the ratio statistics from the raw counters.
func (r *Results) finalize(equity []float64) {
	r.TotalPnL = r.EndBalance - r.StartBalance
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.TotalTrades)
	}
	if r.GrossLoss > 0 {
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	}
	r.MaxDrawdown = maxDrawdown(equity)
}

func maxDrawdown(equity []float64) float64 {
	var peak, worst float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
