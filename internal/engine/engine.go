package engine

import (
	"time"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/sizing"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Engine is the bar-by-bar decision reducer shared by backtest and
// live. It performs no I/O: side effects leave through the listener.
// An identical bar sequence with identical configuration produces an
// identical trade log.
type Engine struct {
	cfg      *config.Config
	detector *signal.Detector
	sizer    *sizing.Sizer
	trades   *trade.Manager
	governor *risk.Governor
	listener Listener

	balance  float64
	lastSnap indicators.Snapshot
	hasSnap  bool
}

// New wires an engine from the configuration.
func New(cfg *config.Config, listener Listener) *Engine {
	if listener == nil {
		listener = NopListener{}
	}
	return &Engine{
		cfg:      cfg,
		detector: signal.NewDetectorFromConfig(cfg.Strategy, cfg.Filters),
		sizer:    sizing.NewSizer(cfg.Capital.RiskPerTrade, cfg.Martingale),
		trades:   trade.NewManager(cfg.Strategy.SLBufferPct, cfg.Strategy.TPRatio, cfg.Capital.GainMultiplier),
		governor: risk.NewGovernor(cfg.Safety),
		listener: listener,
		balance:  cfg.Capital.Initial,
	}
}

// Step consumes one closed bar's snapshot. Exits resolve first; the
// detector runs only while flat, so a pending signal and an open trade
// never coexist.
func (e *Engine) Step(snap indicators.Snapshot) {
	e.lastSnap = snap
	e.hasSnap = true

	if closed := e.trades.OnBar(snap.Bar, snap.Index); closed != nil {
		e.settle(closed)
	}

	if e.trades.OpenTrade() != nil {
		return
	}

	res := e.detector.Evaluate(snap)
	if res.Armed != types.SideNone {
		e.listener.OnSignalArmed(signal.PendingSignal{
			Direction: res.Armed,
			BarIndex:  snap.Index,
			RaisedAt:  snap.Bar.Timestamp,
		})
	}
	if res.Dropped != types.SideNone {
		e.listener.OnSignalDropped(signal.PendingSignal{
			Direction: res.Dropped,
			BarIndex:  snap.Index,
			RaisedAt:  snap.Bar.Timestamp,
		})
	}
	if res.Confirmed == types.SideNone {
		return
	}

	// Emergency mode swallows confirmed signals; they are not queued.
	if !e.governor.Allow() {
		return
	}

	t, err := e.trades.Open(res.Confirmed, snap, e.sizer.Next())
	if err != nil {
		return
	}
	e.listener.OnTradeOpened(t)
}

// settle folds a closed trade into balance, sizer and governor.
func (e *Engine) settle(closed *trade.Trade) {
	e.balance += closed.PnL
	e.sizer.Record(closed.PnL)

	reason := e.governor.OnTradeClosed(closed.PnL, closed.ExitTime)
	e.listener.OnTradeClosed(closed, e.governor.State())
	if reason != "" {
		e.listener.OnEmergencyTriggered(reason, e.governor.State())
	}
}

// CloseManual closes the open trade at the last seen close price.
func (e *Engine) CloseManual(note string) (*trade.Trade, error) {
	if !e.hasSnap {
		return nil, boterrors.NewInvariantError("engine", "manual close: no bar seen yet")
	}
	closed, err := e.trades.Close(e.lastSnap.Bar.Close, e.lastSnap.Bar.Timestamp, e.lastSnap.Index, note)
	if err != nil {
		return nil, err
	}
	e.settle(closed)
	return closed, nil
}

// ResetSignal forces the detector back to idle.
func (e *Engine) ResetSignal() {
	e.detector.Reset()
}

// ClearEmergency returns the governor to normal mode.
func (e *Engine) ClearEmergency(reason string, at time.Time) error {
	return e.governor.ClearEmergency(reason, at)
}

// ResetDaily clears the governor's daily counters.
func (e *Engine) ResetDaily(now time.Time) {
	e.governor.ResetDaily(now)
}

// Balance returns the realized balance.
func (e *Engine) Balance() float64 {
	return e.balance
}

// Pending returns the current pending signal.
func (e *Engine) Pending() signal.PendingSignal {
	return e.detector.Pending()
}

// OpenTrade returns the open trade, nil when flat.
func (e *Engine) OpenTrade() *trade.Trade {
	return e.trades.OpenTrade()
}

// History returns all closed trades.
func (e *Engine) History() []trade.Trade {
	return e.trades.History()
}

// RiskState returns the governor counters.
func (e *Engine) RiskState() risk.State {
	return e.governor.State()
}

// Audit returns the emergency clear audit trail.
func (e *Engine) Audit() []risk.AuditEntry {
	return e.governor.Audit()
}

// Trades exposes the lifecycle manager for live submission folding.
func (e *Engine) Trades() *trade.Manager {
	return e.trades
}

// SettleExternal folds a trade closed outside OnBar resolution, such
// as a failed live submission.
func (e *Engine) SettleExternal(closed *trade.Trade) {
	e.settle(closed)
}

// RestoreBalance reinstates the saved realized balance.
func (e *Engine) RestoreBalance(balance float64) {
	e.balance = balance
}

// RestorePending reinstates a saved pending signal.
func (e *Engine) RestorePending(p signal.PendingSignal) {
	e.detector.Restore(p)
}

// RestoreRisk reinstates saved governor counters.
func (e *Engine) RestoreRisk(state risk.State) {
	e.governor.Restore(state)
}

// RestoreStreak reinstates the saved sizing streak.
func (e *Engine) RestoreStreak(streak sizing.StreakState) {
	e.sizer.Restore(streak)
}

// Streak returns the current sizing streak.
func (e *Engine) Streak() sizing.StreakState {
	return e.sizer.Streak()
}
