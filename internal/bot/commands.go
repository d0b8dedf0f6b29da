package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vlemaire/triple-rsi-bot/internal/monitoring"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Command is an operator instruction routed through the event queue,
// so it executes between bars, never during one.
type Command struct {
	Name    string
	Args    []string
	ReplyCh chan string
}

// ParseCommand splits an operator input line into a command.
func ParseCommand(line string) *Command {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil
	}
	return &Command{
		Name:    strings.ToLower(fields[0]),
		Args:    fields[1:],
		ReplyCh: make(chan string, 1),
	}
}

func (c *Command) reply(msg string) {
	select {
	case c.ReplyCh <- msg:
	default:
	}
}

// runCommand executes one operator command on the worker goroutine.
// Returns true when the bot must stop.
func (b *LiveBot) runCommand(cmd *Command) bool {
	switch cmd.Name {
	case "status":
		cmd.reply(b.statusText())
	case "trades":
		cmd.reply(b.tradesText())
	case "stats":
		cmd.reply(b.statsText())
	case "close":
		cmd.reply(b.closeText())
	case "emergency-clear":
		cmd.reply(b.emergencyClearText(strings.Join(cmd.Args, " ")))
	case "reset":
		b.engine.ResetSignal()
		cmd.reply("signal state reset to idle")
	case "stop":
		cmd.reply("stopping, open position will be closed")
		b.stopText()
		return true
	case "help":
		cmd.reply("commands: status | trades | stats | close | emergency-clear <reason> | reset | stop")
	default:
		cmd.reply(fmt.Sprintf("unknown command %q, try 'help'", cmd.Name))
	}
	return false
}

func (b *LiveBot) statusText() string {
	riskState := b.engine.RiskState()
	var sb strings.Builder
	fmt.Fprintf(&sb, "symbol: %s %s\n", b.cfg.Symbol, b.cfg.Interval)
	fmt.Fprintf(&sb, "balance: %.2f\n", b.engine.Balance())
	fmt.Fprintf(&sb, "mode: %s", riskState.Mode)
	if riskState.EmergencyReason != "" {
		fmt.Fprintf(&sb, " (%s)", riskState.EmergencyReason)
	}
	sb.WriteString("\n")

	if pending := b.engine.Pending(); pending.Direction.String() != "NONE" {
		fmt.Fprintf(&sb, "pending signal: %s since %s\n",
			pending.Direction, pending.RaisedAt.Format(time.RFC3339))
	}
	if open := b.engine.OpenTrade(); open != nil {
		fmt.Fprintf(&sb, "open trade: %s %s entry=%.4f sl=%.4f tp=%.4f\n",
			open.Direction, open.Status, open.EntryPrice, open.StopLoss, open.TakeProfit)
	} else {
		sb.WriteString("open trade: none\n")
	}
	fmt.Fprintf(&sb, "today: %d trades, %.2f loss | streak: %d losses",
		riskState.TradesToday, riskState.DailyLoss, riskState.ConsecutiveLosses)
	return sb.String()
}

func (b *LiveBot) tradesText() string {
	history := b.engine.History()
	if len(history) == 0 {
		return "no closed trades yet"
	}

	// Last 10 only; the journal keeps the full record.
	start := 0
	if len(history) > 10 {
		start = len(history) - 10
	}
	var sb strings.Builder
	for _, t := range history[start:] {
		fmt.Fprintf(&sb, "%s %s %s entry=%.4f exit=%.4f pnl=%.2f\n",
			t.ExitTime.Format("01-02 15:04"), t.Direction, t.Status, t.EntryPrice, t.ExitPrice, t.PnL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *LiveBot) statsText() string {
	history := b.engine.History()
	wins, losses := 0, 0
	var pnl float64
	for _, t := range history {
		pnl += t.PnL
		switch {
		case t.PnL > 0:
			wins++
		case t.PnL < 0:
			losses++
		}
	}
	winRate := 0.0
	if len(history) > 0 {
		winRate = float64(wins) / float64(len(history)) * 100
	}
	return fmt.Sprintf("trades: %d | wins: %d | losses: %d | win rate: %.1f%% | total pnl: %.2f | balance: %.2f",
		len(history), wins, losses, winRate, pnl, b.engine.Balance())
}

func (b *LiveBot) closeText() string {
	open := b.engine.OpenTrade()
	if open == nil {
		return "no open trade"
	}

	closed, err := b.engine.CloseManual("operator close")
	if err != nil {
		return fmt.Sprintf("close failed: %v", err)
	}
	b.submitExitOrder(closed)
	return fmt.Sprintf("closed %s at %.4f, pnl %.2f", closed.Direction, closed.ExitPrice, closed.PnL)
}

func (b *LiveBot) emergencyClearText(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "emergency-clear requires a reason, e.g.: emergency-clear reviewed losses after news spike"
	}
	if err := b.engine.ClearEmergency(reason, time.Now()); err != nil {
		return fmt.Sprintf("clear failed: %v", err)
	}

	monitoring.UpdateEmergencyMode(b.cfg.Symbol, false)
	if b.health != nil {
		b.health.SetEmergency(false)
	}
	if err := b.journal.RecordEmergencyClear(reason, time.Now()); err != nil {
		b.logError("journal emergency clear", err)
	}
	b.notify("info", fmt.Sprintf("Emergency cleared: %s", reason))
	return "emergency cleared, trading resumed"
}

// stopText closes any open position before shutdown.
func (b *LiveBot) stopText() {
	if b.engine.OpenTrade() == nil {
		return
	}
	closed, err := b.engine.CloseManual("shutdown close")
	if err != nil {
		b.logError("shutdown close", err)
		return
	}
	b.submitExitOrder(closed)
}

func (b *LiveBot) submitExitOrder(closed *trade.Trade) {
	if b.executor == nil {
		return
	}
	ctx, cancel := contextWithTimeout()
	defer cancel()
	if _, err := b.executor.SubmitExit(ctx, closed, b.cfg.Symbol); err != nil {
		b.logError("exit submission", err)
		b.notify("error", fmt.Sprintf("Exit order failed, position may still be open on exchange: %v", err))
	}
}
