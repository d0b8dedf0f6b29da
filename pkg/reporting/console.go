package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/vlemaire/triple-rsi-bot/internal/backtest"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
)

// ConsoleReporter renders backtest results to stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputResults prints the run summary and the closed trade table.
func (r *ConsoleReporter) OutputResults(results *backtest.Results) {
	r.printSummary(results)
	r.printTrades(results)
	r.printRisk(results)
}

func (r *ConsoleReporter) printSummary(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Symbol", fmt.Sprintf("%s %s", results.Symbol, results.Interval)},
		{"⏰ Period", fmt.Sprintf("%s → %s (%d bars)",
			results.Start.Format("2006-01-02 15:04"),
			results.End.Format("2006-01-02 15:04"),
			results.Bars)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"💰 Initial Balance", fmt.Sprintf("$%.2f", results.StartBalance)},
		{"💰 Final Balance", fmt.Sprintf("$%.2f", results.EndBalance)},
		{"📈 Total PnL", fmt.Sprintf("$%.2f", results.TotalPnL)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
		{"💹 Profit Factor", fmt.Sprintf("%.2f", results.ProfitFactor)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔄 Total Trades", results.TotalTrades},
		{"✅ Wins", fmt.Sprintf("%d (%.1f%%)", results.Wins, results.WinRate*100)},
		{"❌ Losses", results.Losses},
		{"✋ Manual Closes", results.ManualCloses},
		{"📡 Signals Armed", results.SignalsArmed},
		{"🗑️ Signals Dropped", results.SignalsDropped},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printTrades(results *backtest.Results) {
	if len(results.Trades) == 0 {
		fmt.Println("No closed trades.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("CLOSED TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Side", "Entry Time", "Entry", "Exit", "Status", "Size", "PnL"})

	for i, tr := range results.Trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Direction.String(),
			tr.EntryTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.4f", tr.EntryPrice),
			fmt.Sprintf("%.4f", tr.ExitPrice),
			string(tr.Status),
			fmt.Sprintf("%.2f", tr.Size),
			fmt.Sprintf("%+.2f", tr.PnL),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
	fmt.Println()
}

func (r *ConsoleReporter) printRisk(results *backtest.Results) {
	if results.Emergencies == 0 && results.RiskState.Mode == risk.ModeNormal {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK EVENTS")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"🚨 Emergencies", results.Emergencies},
		{"🛑 Final Mode", string(results.RiskState.Mode)},
	})
	if results.RiskState.EmergencyReason != "" {
		t.AppendRow(table.Row{"📝 Reason", results.RiskState.EmergencyReason})
	}
	t.Render()
	fmt.Println()
}

// OutputConsole is the package-level convenience entry point.
func OutputConsole(results *backtest.Results) {
	NewConsoleReporter().OutputResults(results)
}
