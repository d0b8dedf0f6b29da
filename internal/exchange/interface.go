package exchange

import (
	"context"

	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// OrderExecutor submits orders for decided trades. The decision engine
// never talks to an exchange directly; the live bot forwards its
// decisions here.
type OrderExecutor interface {
	// SubmitEntry places the entry order for a freshly opened trade,
	// attaching its stop-loss and take-profit levels. Returns the
	// exchange order ID.
	SubmitEntry(ctx context.Context, t *trade.Trade, symbol string) (string, error)

	// SubmitExit places the closing order for a manually closed trade.
	SubmitExit(ctx context.Context, t *trade.Trade, symbol string) (string, error)

	// Name identifies the executor in logs.
	Name() string
}

// BarStream delivers closed bars from a market data feed.
type BarStream interface {
	// Start connects and begins streaming. Bars arrive on Bars()
	// until the context is cancelled or Close is called.
	Start(ctx context.Context) error

	// Bars returns the channel of closed bars, in order.
	Bars() <-chan types.OHLCV

	// Errors returns stream-level failures (after reconnects are
	// exhausted the channel is closed).
	Errors() <-chan error

	Close() error
}
