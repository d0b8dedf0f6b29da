package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vlemaire/triple-rsi-bot/internal/backtest"
)

// CSVReporter writes the trade log to a CSV file.
type CSVReporter struct{}

// NewCSVReporter creates a CSV reporter.
func NewCSVReporter() *CSVReporter {
	return &CSVReporter{}
}

// WriteTradesCSV writes the closed trades to path. An .xlsx path is
// delegated to the Excel writer.
func (r *CSVReporter) WriteTradesCSV(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteTradesXLSX(results, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Num",
		"Direction",
		"Entry_Time",
		"Exit_Time",
		"Entry_Price",
		"Exit_Price",
		"Stop_Loss",
		"Take_Profit",
		"Size",
		"Quantity",
		"Status",
		"PnL",
		"Win_Loss",
	}); err != nil {
		return err
	}

	var totalPnL float64
	for i, t := range results.Trades {
		totalPnL += t.PnL

		winLoss := "W"
		if t.PnL < 0 {
			winLoss = "L"
		} else if t.PnL == 0 {
			winLoss = "-"
		}

		row := []string{
			strconv.Itoa(i + 1),
			t.Direction.String(),
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.8f", t.EntryPrice),
			fmt.Sprintf("%.8f", t.ExitPrice),
			fmt.Sprintf("%.8f", t.StopLoss),
			fmt.Sprintf("%.8f", t.TakeProfit),
			fmt.Sprintf("%.2f", t.Size),
			fmt.Sprintf("%.6f", t.Quantity),
			string(t.Status),
			fmt.Sprintf("%.2f", t.PnL),
			winLoss,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("SUMMARY: total_pnl=%.2f; win_rate=%.1f%%; trades=%d; max_drawdown=%.2f%%",
		totalPnL, results.WinRate*100, results.TotalTrades, results.MaxDrawdown*100)
	summaryRow := make([]string, 13)
	summaryRow[12] = summary
	return w.Write(summaryRow)
}

// WriteTradesCSV is the package-level convenience entry point.
func WriteTradesCSV(results *backtest.Results, path string) error {
	return NewCSVReporter().WriteTradesCSV(results, path)
}
