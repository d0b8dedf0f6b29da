package backtest

import (
	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/engine"
	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Runner replays historical bars through the decision engine and
// collects statistics. The runner is its own engine listener.
type Runner struct {
	cfg     *config.Config
	results Results
	equity  []float64
}

// NewRunner creates a backtest runner.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run replays the bar sequence. Bad data aborts the run.
func (r *Runner) Run(bars []types.OHLCV) (*Results, error) {
	if len(bars) == 0 {
		return nil, boterrors.NewDataError("backtest", "no bars to replay")
	}

	provider, err := indicators.NewProvider(r.cfg.Strategy)
	if err != nil {
		return nil, err
	}
	eng := engine.New(r.cfg, r)

	r.results = Results{
		Symbol:       r.cfg.Symbol,
		Interval:     r.cfg.Interval,
		Start:        bars[0].Timestamp,
		End:          bars[len(bars)-1].Timestamp,
		Bars:         len(bars),
		StartBalance: r.cfg.Capital.Initial,
	}
	r.equity = append(r.equity[:0], r.cfg.Capital.Initial)

	for i, bar := range bars {
		if i > 0 && !bar.Timestamp.After(bars[i-1].Timestamp) {
			return nil, boterrors.NewDataError("backtest", "bar %d out of order", i)
		}
		eng.Step(provider.OnBar(bar))
		r.equity = append(r.equity, eng.Balance())
	}

	// A position left open at the end of the data closes at the last
	// bar's close so the run settles fully.
	if eng.OpenTrade() != nil {
		if _, err := eng.CloseManual("end of data"); err != nil {
			return nil, err
		}
	}

	r.results.EndBalance = eng.Balance()
	r.results.Trades = eng.History()
	r.results.RiskState = eng.RiskState()
	r.results.Audit = eng.Audit()
	r.results.finalize(r.equity)
	return &r.results, nil
}

func (r *Runner) OnSignalArmed(signal.PendingSignal) {
	r.results.SignalsArmed++
}

func (r *Runner) OnSignalDropped(signal.PendingSignal) {
	r.results.SignalsDropped++
}

func (r *Runner) OnTradeOpened(*trade.Trade) {}

func (r *Runner) OnTradeClosed(t *trade.Trade, _ risk.State) {
	r.results.TotalTrades++
	switch {
	case t.PnL > 0:
		r.results.Wins++
		r.results.GrossProfit += t.PnL
	case t.PnL < 0:
		r.results.Losses++
		r.results.GrossLoss += -t.PnL
	}
	if t.Status == trade.StatusClosedManual {
		r.results.ManualCloses++
	}
}

func (r *Runner) OnEmergencyTriggered(string, risk.State) {
	r.results.Emergencies++
}
