package risk

import (
	"fmt"
	"time"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
)

// Mode is the governor operating mode.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeEmergency Mode = "emergency"
)

// State is the governor's counter set. Daily counters reset at the day
// boundary; the cumulative loss and emergency mode never reset on
// their own.
type State struct {
	TradesToday       int     `json:"trades_today"`
	DailyLoss         float64 `json:"daily_loss"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	CumulativeLoss    float64 `json:"cumulative_loss"`

	Mode            Mode      `json:"mode"`
	EmergencyReason string    `json:"emergency_reason,omitempty"`
	EmergencyAt     time.Time `json:"emergency_at,omitempty"`

	CurrentDay time.Time `json:"current_day"`
}

// AuditEntry records an emergency clear for the audit trail.
type AuditEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Reason string    `json:"reason"`
}

// Governor enforces the safety limits. It sees every trade close and
// gates every open.
type Governor struct {
	limits config.SafetyLimits
	state  State
	audit  []AuditEntry
}

// NewGovernor creates a governor in normal mode.
func NewGovernor(limits config.SafetyLimits) *Governor {
	return &Governor{
		limits: limits,
		state:  State{Mode: ModeNormal},
	}
}

// Allow reports whether a new trade may be opened.
func (g *Governor) Allow() bool {
	return g.state.Mode == ModeNormal
}

// OnTradeClosed folds a realized close into the counters and trips the
// emergency mode when any limit is breached. Returns the trip reason,
// empty when nothing tripped.
func (g *Governor) OnTradeClosed(pnl float64, at time.Time) string {
	g.rollDay(at)

	g.state.TradesToday++
	switch {
	case pnl < 0:
		g.state.DailyLoss += -pnl
		g.state.CumulativeLoss += -pnl
		g.state.ConsecutiveLosses++
	case pnl > 0:
		// Only a realized gain breaks the loss streak; a zero-PnL
		// close (break-even or abandoned entry) leaves it standing.
		g.state.ConsecutiveLosses = 0
	}

	if g.state.Mode == ModeEmergency {
		return ""
	}

	var reason string
	switch {
	case g.state.TradesToday > g.limits.MaxDailyTrades:
		reason = fmt.Sprintf("daily trade limit exceeded: %d > %d", g.state.TradesToday, g.limits.MaxDailyTrades)
	case g.state.DailyLoss > g.limits.MaxDailyLoss:
		reason = fmt.Sprintf("daily loss limit exceeded: %.2f > %.2f", g.state.DailyLoss, g.limits.MaxDailyLoss)
	case g.state.ConsecutiveLosses >= g.limits.MaxConsecutiveLosses:
		reason = fmt.Sprintf("consecutive loss limit reached: %d", g.state.ConsecutiveLosses)
	case g.state.CumulativeLoss > g.limits.EmergencyStopLoss:
		reason = fmt.Sprintf("emergency stop loss exceeded: %.2f > %.2f", g.state.CumulativeLoss, g.limits.EmergencyStopLoss)
	}

	if reason != "" {
		g.state.Mode = ModeEmergency
		g.state.EmergencyReason = reason
		g.state.EmergencyAt = at
	}
	return reason
}

// ClearEmergency returns the governor to normal mode. The reason is
// mandatory: every manual override leaves an audit entry.
func (g *Governor) ClearEmergency(reason string, at time.Time) error {
	if reason == "" {
		return boterrors.NewInvariantError("risk", "emergency clear requires a reason")
	}
	if g.state.Mode != ModeEmergency {
		return boterrors.NewInvariantError("risk", "emergency clear: not in emergency mode")
	}

	g.audit = append(g.audit, AuditEntry{At: at, Action: "emergency_clear", Reason: reason})
	g.state.Mode = ModeNormal
	g.state.EmergencyReason = ""
	g.state.EmergencyAt = time.Time{}
	g.state.ConsecutiveLosses = 0
	return nil
}

// ResetDaily clears the daily counters. Emergency mode and the
// cumulative loss are untouched.
func (g *Governor) ResetDaily(now time.Time) {
	g.state.TradesToday = 0
	g.state.DailyLoss = 0
	g.state.CurrentDay = g.dayOf(now)
}

// rollDay resets daily counters when the close lands in a new day.
// Backtests drive this from bar timestamps; live also runs a cron at
// the boundary so an idle day still resets.
func (g *Governor) rollDay(at time.Time) {
	day := g.dayOf(at)
	if g.state.CurrentDay.IsZero() {
		g.state.CurrentDay = day
		return
	}
	if day.After(g.state.CurrentDay) {
		g.ResetDaily(at)
	}
}

// dayOf maps a timestamp to its trading day, honoring the configured
// boundary hour.
func (g *Governor) dayOf(t time.Time) time.Time {
	u := t.UTC().Add(-time.Duration(g.limits.DayBoundaryHour) * time.Hour)
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// State returns a copy of the current counters.
func (g *Governor) State() State {
	return g.state
}

// Audit returns the emergency clear audit trail.
func (g *Governor) Audit() []AuditEntry {
	return g.audit
}

// Restore reinstates saved counters, used when resuming a live
// session.
func (g *Governor) Restore(state State) {
	if state.Mode == "" {
		state.Mode = ModeNormal
	}
	g.state = state
}
