package signal

import (
	"time"

	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// PendingSignal is an armed but unconfirmed signal. At most one exists
// at a time.
type PendingSignal struct {
	Direction types.Side
	BarIndex  int
	RaisedAt  time.Time
}

// Result is the outcome of evaluating one bar.
type Result struct {
	// Armed is the direction newly armed on this bar, SideNone
	// otherwise. Replacing a pending signal with the opposite
	// direction also reports Armed.
	Armed types.Side

	// Confirmed is the direction of a signal that passed Heikin Ashi
	// confirmation and all enabled filters on this bar, SideNone
	// otherwise.
	Confirmed types.Side

	// Dropped is the direction of a pending signal cancelled because a
	// filter rejected it after Heikin Ashi confirmation, SideNone
	// otherwise.
	Dropped types.Side
}

// Detector is the sticky pending-signal state machine. The RSI arming
// condition is evaluated only while idle or for direction replacement;
// once pending, only confirmation is checked until the signal fires,
// drops or is reset.
type Detector struct {
	cfg     config.StrategyConfig
	haGate  bool
	filters []Filter
	pending PendingSignal
}

// NewDetector builds a detector. The filter list holds the enabled
// post-confirmation filters, in evaluation order.
func NewDetector(cfg config.StrategyConfig, haConfirmation bool, filters []Filter) *Detector {
	return &Detector{cfg: cfg, haGate: haConfirmation, filters: filters}
}

// NewDetectorFromConfig wires the standard filter set from the filter
// toggles.
func NewDetectorFromConfig(strategy config.StrategyConfig, filters config.FilterConfig) *Detector {
	var enabled []Filter
	if filters.Trend {
		enabled = append(enabled, TrendFilter{})
	}
	if filters.MTFRSI {
		enabled = append(enabled, NewMTFRSIFilter())
	}
	return NewDetector(strategy, filters.HeikinAshi, enabled)
}

// Pending returns the current pending signal; Direction is SideNone
// when idle.
func (d *Detector) Pending() PendingSignal {
	return d.pending
}

// Reset forces the detector back to idle.
func (d *Detector) Reset() {
	d.pending = PendingSignal{}
}

// Restore reinstates a saved pending signal, used when resuming a live
// session. The signal stays sticky from where it left off.
func (d *Detector) Restore(p PendingSignal) {
	d.pending = p
}

// Evaluate consumes one snapshot and advances the state machine.
// Snapshots that are not ready are ignored.
func (d *Detector) Evaluate(snap indicators.Snapshot) Result {
	if !snap.Ready {
		return Result{}
	}

	var res Result

	// Arming. A fresh extreme in the opposite direction replaces the
	// existing pending signal; the same direction re-triggering is a
	// no-op, the original arm timestamp stands.
	if trigger := d.rsiTrigger(snap); trigger != types.SideNone && trigger != d.pending.Direction {
		d.pending = PendingSignal{
			Direction: trigger,
			BarIndex:  snap.Index,
			RaisedAt:  snap.Bar.Timestamp,
		}
		res.Armed = trigger
	}

	if d.pending.Direction == types.SideNone {
		return res
	}

	// Confirmation. Heikin Ashi color first, then the filter chain.
	if d.haGate && !haConfirms(snap.HA.Color, d.pending.Direction) {
		return res
	}

	for _, f := range d.filters {
		if !f.Apply(snap, d.pending.Direction) {
			res.Dropped = d.pending.Direction
			d.pending = PendingSignal{}
			return res
		}
	}

	res.Confirmed = d.pending.Direction
	d.pending = PendingSignal{}
	return res
}

// rsiTrigger reports the direction armed by the multi-period RSI
// condition: every configured period beyond its threshold at once.
func (d *Detector) rsiTrigger(snap indicators.Snapshot) types.Side {
	allBelow, allAbove := true, true
	for _, period := range d.cfg.RSIPeriods {
		v, ok := snap.RSI[indicators.RSIKey(period)]
		if !ok {
			return types.SideNone
		}
		if v >= d.cfg.RSIOversold {
			allBelow = false
		}
		if v <= d.cfg.RSIOverbought {
			allAbove = false
		}
	}
	switch {
	case allBelow:
		return types.SideLong
	case allAbove:
		return types.SideShort
	default:
		return types.SideNone
	}
}

func haConfirms(color types.CandleColor, direction types.Side) bool {
	switch direction {
	case types.SideLong:
		return color == types.ColorGreen
	case types.SideShort:
		return color == types.ColorRed
	default:
		return false
	}
}
