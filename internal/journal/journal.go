package journal

import (
	"time"

	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// Journal records trading activity for post-session review.
type Journal interface {
	RecordTrade(t *trade.Trade) error
	RecordSignal(p signal.PendingSignal, event string) error
	RecordEmergency(reason string, state risk.State, at time.Time) error
	RecordEmergencyClear(reason string, at time.Time) error
	Close() error
}

// Noop discards everything; backtests use it, reporting covers them.
type Noop struct{}

func (Noop) RecordTrade(*trade.Trade) error                        { return nil }
func (Noop) RecordSignal(signal.PendingSignal, string) error       { return nil }
func (Noop) RecordEmergency(string, risk.State, time.Time) error   { return nil }
func (Noop) RecordEmergencyClear(string, time.Time) error          { return nil }
func (Noop) Close() error                                          { return nil }
