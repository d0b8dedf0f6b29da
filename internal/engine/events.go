package engine

import (
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// Listener receives engine events. Callbacks run synchronously inside
// Step; implementations must not block and must not call back into the
// engine.
type Listener interface {
	OnSignalArmed(pending signal.PendingSignal)
	OnSignalDropped(pending signal.PendingSignal)
	OnTradeOpened(t *trade.Trade)
	OnTradeClosed(t *trade.Trade, state risk.State)
	OnEmergencyTriggered(reason string, state risk.State)
}

// NopListener discards all events.
type NopListener struct{}

func (NopListener) OnSignalArmed(signal.PendingSignal)        {}
func (NopListener) OnSignalDropped(signal.PendingSignal)      {}
func (NopListener) OnTradeOpened(*trade.Trade)                {}
func (NopListener) OnTradeClosed(*trade.Trade, risk.State)    {}
func (NopListener) OnEmergencyTriggered(string, risk.State)   {}

// MultiListener fans events out to several listeners in order.
type MultiListener []Listener

func (m MultiListener) OnSignalArmed(p signal.PendingSignal) {
	for _, l := range m {
		l.OnSignalArmed(p)
	}
}

func (m MultiListener) OnSignalDropped(p signal.PendingSignal) {
	for _, l := range m {
		l.OnSignalDropped(p)
	}
}

func (m MultiListener) OnTradeOpened(t *trade.Trade) {
	for _, l := range m {
		l.OnTradeOpened(t)
	}
}

func (m MultiListener) OnTradeClosed(t *trade.Trade, s risk.State) {
	for _, l := range m {
		l.OnTradeClosed(t, s)
	}
}

func (m MultiListener) OnEmergencyTriggered(reason string, s risk.State) {
	for _, l := range m {
		l.OnEmergencyTriggered(reason, s)
	}
}
