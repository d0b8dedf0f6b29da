package trade

import (
	"time"

	"github.com/google/uuid"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Status is the trade lifecycle state.
type Status string

const (
	StatusOpen Status = "open"

	// Live only: order submitted, acknowledgment outstanding. Exit
	// checks still run so a fill is never missed.
	StatusPendingConfirmation Status = "pending_confirmation"

	StatusClosedSL     Status = "closed_sl"
	StatusClosedTP     Status = "closed_tp"
	StatusClosedManual Status = "closed_manual"
)

// Closed reports whether the status is terminal.
func (s Status) Closed() bool {
	switch s {
	case StatusClosedSL, StatusClosedTP, StatusClosedManual:
		return true
	}
	return false
}

// Trade is one position from open to close.
type Trade struct {
	ID        string     `json:"id"`
	Direction types.Side `json:"direction"`

	EntryPrice float64   `json:"entry_price"`
	EntryBar   int       `json:"entry_bar"`
	EntryTime  time.Time `json:"entry_time"`

	// Size is the risk amount in quote currency; Quantity the base
	// quantity sized so that a stop-loss exit loses exactly Size.
	Size     float64 `json:"size"`
	Quantity float64 `json:"quantity"`

	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`

	Status    Status    `json:"status"`
	ExitPrice float64   `json:"exit_price,omitempty"`
	ExitBar   int       `json:"exit_bar,omitempty"`
	ExitTime  time.Time `json:"exit_time,omitempty"`
	PnL       float64   `json:"pnl"`
	Note      string    `json:"note,omitempty"`
}

// Win reports whether the closed trade realized a gain.
func (t *Trade) Win() bool {
	return t.PnL > 0
}

// Manager owns the single open trade and resolves its exits.
type Manager struct {
	slBufferPct    float64
	tpRatio        float64
	gainMultiplier float64

	open   *Trade
	closed []Trade
}

// NewManager creates a trade manager.
func NewManager(slBufferPct, tpRatio, gainMultiplier float64) *Manager {
	if gainMultiplier == 0 {
		gainMultiplier = 1
	}
	return &Manager{
		slBufferPct:    slBufferPct,
		tpRatio:        tpRatio,
		gainMultiplier: gainMultiplier,
	}
}

// Open opens a trade at the current bar's close. The stop sits beyond
// the Heikin Ashi extreme with a configurable buffer; the target is the
// entry-to-stop distance scaled by the TP ratio.
func (m *Manager) Open(direction types.Side, snap indicators.Snapshot, size float64) (*Trade, error) {
	if m.open != nil {
		return nil, boterrors.NewInvariantError("trade", "open rejected: trade %s already open", m.open.ID)
	}
	if direction != types.SideLong && direction != types.SideShort {
		return nil, boterrors.NewInvariantError("trade", "open rejected: direction %s", direction)
	}
	if size <= 0 {
		return nil, boterrors.NewInvariantError("trade", "open rejected: non-positive size %.4f", size)
	}

	entry := snap.Bar.Close
	var sl, tp, risk float64
	switch direction {
	case types.SideLong:
		sl = snap.HA.Low * (1 - m.slBufferPct)
		risk = entry - sl
		tp = entry + m.tpRatio*risk
	case types.SideShort:
		sl = snap.HA.High * (1 + m.slBufferPct)
		risk = sl - entry
		tp = entry - m.tpRatio*risk
	}

	// A stop on the wrong side of the entry makes the trade
	// unresolvable; skip rather than open it.
	if risk <= 0 {
		return nil, boterrors.NewInvariantError("trade",
			"open rejected: stop %.4f not beyond entry %.4f for %s", sl, entry, direction)
	}

	t := &Trade{
		ID:         uuid.New().String(),
		Direction:  direction,
		EntryPrice: entry,
		EntryBar:   snap.Index,
		EntryTime:  snap.Bar.Timestamp,
		Size:       size,
		Quantity:   size / risk,
		StopLoss:   sl,
		TakeProfit: tp,
		Status:     StatusOpen,
	}
	m.open = t
	return t, nil
}

// OnBar resolves the open trade against one bar's range. The stop is
// checked before the target: when a bar spans both levels the loss is
// taken. Returns the closed trade, or nil when nothing closed.
func (m *Manager) OnBar(bar types.OHLCV, index int) *Trade {
	t := m.open
	if t == nil {
		return nil
	}

	switch t.Direction {
	case types.SideLong:
		if bar.Low <= t.StopLoss {
			return m.close(t, t.StopLoss, StatusClosedSL, bar.Timestamp, index)
		}
		if bar.High >= t.TakeProfit {
			return m.close(t, t.TakeProfit, StatusClosedTP, bar.Timestamp, index)
		}
	case types.SideShort:
		if bar.High >= t.StopLoss {
			return m.close(t, t.StopLoss, StatusClosedSL, bar.Timestamp, index)
		}
		if bar.Low <= t.TakeProfit {
			return m.close(t, t.TakeProfit, StatusClosedTP, bar.Timestamp, index)
		}
	}
	return nil
}

// Close closes the open trade manually at the given price.
func (m *Manager) Close(price float64, at time.Time, index int, note string) (*Trade, error) {
	t := m.open
	if t == nil {
		return nil, boterrors.NewInvariantError("trade", "manual close rejected: no open trade")
	}
	closed := m.close(t, price, StatusClosedManual, at, index)
	closed.Note = note
	return closed, nil
}

func (m *Manager) close(t *Trade, exit float64, status Status, at time.Time, index int) *Trade {
	t.ExitPrice = exit
	t.ExitBar = index
	t.ExitTime = at
	t.Status = status
	t.PnL = (exit - t.EntryPrice) * t.Direction.Sign() * t.Quantity
	if t.PnL > 0 {
		t.PnL *= m.gainMultiplier
	}

	m.open = nil
	m.closed = append(m.closed, *t)
	return t
}

// MarkSubmitted flags the open trade as awaiting order acknowledgment.
func (m *Manager) MarkSubmitted() error {
	if m.open == nil {
		return boterrors.NewInvariantError("trade", "mark submitted: no open trade")
	}
	m.open.Status = StatusPendingConfirmation
	return nil
}

// ConfirmOpen acknowledges order placement.
func (m *Manager) ConfirmOpen() error {
	if m.open == nil {
		return boterrors.NewInvariantError("trade", "confirm open: no open trade")
	}
	m.open.Status = StatusOpen
	return nil
}

// FailOpen abandons a trade whose order could not be placed after
// retries. The trade is recorded closed_manual with zero PnL and the
// failure note.
func (m *Manager) FailOpen(note string) (*Trade, error) {
	t := m.open
	if t == nil {
		return nil, boterrors.NewInvariantError("trade", "fail open: no open trade")
	}
	t.ExitPrice = t.EntryPrice
	t.ExitBar = t.EntryBar
	t.ExitTime = t.EntryTime
	t.Status = StatusClosedManual
	t.PnL = 0
	t.Note = note

	m.open = nil
	m.closed = append(m.closed, *t)
	return t, nil
}

// Open trade accessor; nil when flat.
func (m *Manager) OpenTrade() *Trade {
	return m.open
}

// History returns all closed trades in close order.
func (m *Manager) History() []Trade {
	return m.closed
}

// Restore reinstates a previously open trade from a saved snapshot.
func (m *Manager) Restore(t *Trade) error {
	if m.open != nil {
		return boterrors.NewInvariantError("trade", "restore rejected: trade %s already open", m.open.ID)
	}
	m.open = t
	return nil
}
