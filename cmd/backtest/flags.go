package main

import "flag"

// BacktestFlags holds the command line flags for the backtest command.
type BacktestFlags struct {
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	Interval   *string

	InitialBalance *float64
	RiskPerTrade   *float64

	OutputFile  *string
	ConsoleOnly *bool
	EnvFile     *string
}

// NewBacktestFlags registers the command line flags.
func NewBacktestFlags() *BacktestFlags {
	return &BacktestFlags{
		ConfigFile: flag.String("config", "", "Path to configuration file (JSON or YAML)"),
		DataFile:   flag.String("data", "", "Path to historical kline CSV file"),
		Symbol:     flag.String("symbol", "", "Trading symbol override (e.g., BTCUSDT)"),
		Interval:   flag.String("interval", "", "Bar interval override (1m, 5m, 15m, 1h, 4h, 1d)"),

		InitialBalance: flag.Float64("balance", 0, "Initial balance override"),
		RiskPerTrade:   flag.Float64("risk", 0, "Risk per trade override"),

		OutputFile:  flag.String("output", "", "Trade log output path (.csv or .xlsx)"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip file output, print results to console only"),
		EnvFile:     flag.String("env", ".env", "Environment file path"),
	}
}
