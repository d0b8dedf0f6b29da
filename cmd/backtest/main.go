package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/vlemaire/triple-rsi-bot/internal/backtest"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/data"
	"github.com/vlemaire/triple-rsi-bot/pkg/reporting"
)

func main() {
	flags := NewBacktestFlags()
	flag.Parse()

	if *flags.DataFile == "" {
		log.Fatal("Please specify a data file with -data flag")
	}

	if err := loadEnvFile(*flags.EnvFile); err != nil {
		log.Printf("Warning: could not load env file (%v), continuing with environment", err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("🚀 Backtest starting: %s %s\n", cfg.Symbol, cfg.Interval)

	provider := data.NewCSVProvider()
	bars, err := provider.LoadData(*flags.DataFile)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}
	fmt.Printf("📊 Loaded %d bars from %s\n", len(bars), *flags.DataFile)

	results, err := backtest.NewRunner(cfg).Run(bars)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	reporting.OutputConsole(results)

	if !*flags.ConsoleOnly && *flags.OutputFile != "" {
		if err := reporting.WriteTradesCSV(results, *flags.OutputFile); err != nil {
			log.Fatalf("Failed to write trade log: %v", err)
		}
		fmt.Printf("📝 Trade log written to %s\n", *flags.OutputFile)
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(flags *BacktestFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *flags.ConfigFile != "" {
		cfg, err = config.Load(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if *flags.Symbol != "" {
		cfg.Symbol = *flags.Symbol
	}
	if *flags.Interval != "" {
		cfg.Interval = *flags.Interval
	}
	if *flags.InitialBalance > 0 {
		cfg.Capital.Initial = *flags.InitialBalance
	}
	if *flags.RiskPerTrade > 0 {
		cfg.Capital.RiskPerTrade = *flags.RiskPerTrade
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		return fmt.Errorf("env file %s not found", envFile)
	}
	return godotenv.Load(envFile)
}
