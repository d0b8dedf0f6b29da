package exchange

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// PaperExecutor simulates order placement locally. Every submission
// succeeds with a generated order ID.
type PaperExecutor struct{}

// NewPaperExecutor creates a paper trading executor.
func NewPaperExecutor() *PaperExecutor {
	return &PaperExecutor{}
}

func (e *PaperExecutor) Name() string {
	return "paper"
}

func (e *PaperExecutor) SubmitEntry(_ context.Context, t *trade.Trade, symbol string) (string, error) {
	orderID := uuid.New().String()
	log.Printf("[paper] entry %s %s qty=%.6f sl=%.4f tp=%.4f order=%s",
		t.Direction, symbol, t.Quantity, t.StopLoss, t.TakeProfit, orderID)
	return orderID, nil
}

func (e *PaperExecutor) SubmitExit(_ context.Context, t *trade.Trade, symbol string) (string, error) {
	orderID := uuid.New().String()
	log.Printf("[paper] exit %s %s qty=%.6f order=%s",
		t.Direction, symbol, t.Quantity, orderID)
	return orderID, nil
}
