package sizing

import (
	"math"

	"github.com/vlemaire/triple-rsi-bot/pkg/config"
)

// StreakState tracks the win/loss streak that drives martingale
// scaling. It is mutated only through Record.
type StreakState struct {
	ConsecutiveWins   int `json:"consecutive_wins"`
	ConsecutiveLosses int `json:"consecutive_losses"`
}

// Sizer computes the risk size for the next trade. Pure state machine,
// no I/O.
type Sizer struct {
	base   float64
	cfg    config.MartingaleConfig
	streak StreakState
}

// NewSizer creates a sizer with the given base risk per trade.
func NewSizer(base float64, cfg config.MartingaleConfig) *Sizer {
	return &Sizer{base: base, cfg: cfg}
}

// Next returns the risk size for the next trade under the current
// streak.
func (s *Sizer) Next() float64 {
	if !s.cfg.Enabled || s.cfg.Type == config.MartingaleNone {
		return s.base
	}

	var stage int
	switch s.cfg.Type {
	case config.MartingaleNormal:
		stage = s.streak.ConsecutiveLosses
	case config.MartingaleReverse:
		stage = s.streak.ConsecutiveWins
	}
	if stage > s.cfg.WinStreakMax {
		stage = s.cfg.WinStreakMax
	}
	return s.base * math.Pow(s.cfg.Multiplier, float64(stage))
}

// Record updates the streak after a trade close. A zero-PnL close
// (break-even manual close, abandoned unconfirmed entry) is neutral:
// neither streak moves, so the next size stays unchanged.
func (s *Sizer) Record(pnl float64) {
	switch {
	case pnl > 0:
		s.streak.ConsecutiveWins++
		s.streak.ConsecutiveLosses = 0
	case pnl < 0:
		s.streak.ConsecutiveLosses++
		s.streak.ConsecutiveWins = 0
	}
}

// Streak returns the current streak state.
func (s *Sizer) Streak() StreakState {
	return s.streak
}

// Restore replaces the streak state, used when resuming from a saved
// snapshot.
func (s *Sizer) Restore(streak StreakState) {
	s.streak = streak
}

// Stage returns the current scaling stage, for reporting.
func (s *Sizer) Stage() int {
	if !s.cfg.Enabled || s.cfg.Type == config.MartingaleNone {
		return 0
	}
	switch s.cfg.Type {
	case config.MartingaleNormal:
		return min(s.streak.ConsecutiveLosses, s.cfg.WinStreakMax)
	case config.MartingaleReverse:
		return min(s.streak.ConsecutiveWins, s.cfg.WinStreakMax)
	}
	return 0
}
