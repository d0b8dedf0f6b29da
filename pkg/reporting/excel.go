package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vlemaire/triple-rsi-bot/internal/backtest"
)

// ExcelReporter writes backtest results to an Excel workbook with a
// summary sheet and a trade log sheet.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	Header   int
	Currency int
	Percent  int
	Win      int
	Loss     int
}

// WriteTradesXLSX writes the workbook to path.
func (r *ExcelReporter) WriteTradesXLSX(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Win, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Loss, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Symbol", fmt.Sprintf("%s %s", results.Symbol, results.Interval), 0},
		{"Period Start", results.Start.Format("2006-01-02 15:04"), 0},
		{"Period End", results.End.Format("2006-01-02 15:04"), 0},
		{"Bars", results.Bars, 0},
		{"Initial Balance", results.StartBalance, styles.Currency},
		{"Final Balance", results.EndBalance, styles.Currency},
		{"Total PnL", results.TotalPnL, styles.Currency},
		{"Max Drawdown", results.MaxDrawdown, styles.Percent},
		{"Profit Factor", results.ProfitFactor, 0},
		{"Total Trades", results.TotalTrades, 0},
		{"Wins", results.Wins, 0},
		{"Losses", results.Losses, 0},
		{"Win Rate", results.WinRate, styles.Percent},
		{"Manual Closes", results.ManualCloses, 0},
		{"Signals Armed", results.SignalsArmed, 0},
		{"Signals Dropped", results.SignalsDropped, 0},
		{"Emergency Stops", results.Emergencies, 0},
	}

	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.Header)

	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		fx.SetCellValue(sheet, labelCell, row.label)
		fx.SetCellValue(sheet, valueCell, row.value)
		if row.style != 0 {
			fx.SetCellStyle(sheet, valueCell, valueCell, row.style)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	headers := []string{
		"Num", "Direction", "Entry Time", "Exit Time",
		"Entry Price", "Exit Price", "Stop Loss", "Take Profit",
		"Size", "Quantity", "Status", "PnL",
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		fx.SetCellValue(sheet, cell, h)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", last, styles.Header)

	for i, t := range results.Trades {
		rowNum := i + 2
		values := []interface{}{
			i + 1,
			t.Direction.String(),
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			t.EntryPrice,
			t.ExitPrice,
			t.StopLoss,
			t.TakeProfit,
			t.Size,
			t.Quantity,
			string(t.Status),
			t.PnL,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			fx.SetCellValue(sheet, cell, v)
		}

		pnlCell, err := excelize.CoordinatesToCellName(len(values), rowNum)
		if err != nil {
			return err
		}
		pnlStyle := styles.Win
		if t.PnL < 0 {
			pnlStyle = styles.Loss
		}
		fx.SetCellStyle(sheet, pnlCell, pnlCell, pnlStyle)
	}

	fx.SetColWidth(sheet, "A", "L", 18)
	return nil
}

// WriteTradesXLSX is the package-level convenience entry point.
func WriteTradesXLSX(results *backtest.Results, path string) error {
	return NewExcelReporter().WriteTradesXLSX(results, path)
}
