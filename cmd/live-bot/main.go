package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vlemaire/triple-rsi-bot/internal/bot"
	"github.com/vlemaire/triple-rsi-bot/internal/exchange"
	"github.com/vlemaire/triple-rsi-bot/internal/journal"
	"github.com/vlemaire/triple-rsi-bot/internal/logger"
	"github.com/vlemaire/triple-rsi-bot/internal/monitoring"
	"github.com/vlemaire/triple-rsi-bot/internal/notifications"
	"github.com/vlemaire/triple-rsi-bot/internal/state"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file (e.g., btc_1m.json)")
		envFile     = flag.String("env", ".env", "Environment file path")
		paper       = flag.Bool("paper", true, "Paper trading: simulate order placement locally")
		stateDir    = flag.String("state-dir", "state", "Session state directory")
		journalPath = flag.String("journal", "", "SQLite journal path (empty disables journaling)")
		httpAddr    = flag.String("http", ":9090", "Metrics and health endpoint address (empty disables)")
	)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Please specify a config file with -config flag")
	}

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: could not load env file (%v), checking environment variables", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Symbol == "" {
		log.Fatal("Config must set a symbol for live trading")
	}

	fmt.Printf("🚀 Triple-RSI bot starting: %s %s\n", cfg.Symbol, cfg.Interval)

	fileLog, err := logger.NewLogger(cfg.Symbol, cfg.Interval)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLog.Close()
	fmt.Printf("📝 Logging to %s\n", fileLog.GetLogPath())

	opts, err := buildOptions(cfg, fileLog, *paper, *stateDir, *journalPath)
	if err != nil {
		log.Fatalf("Failed to wire bot: %v", err)
	}

	liveBot, err := bot.NewLiveBot(cfg, opts)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Resume a previous session if one was persisted.
	if opts.Persist != nil {
		saved, err := opts.Persist.LoadState()
		if err != nil {
			log.Fatalf("Failed to load saved state: %v", err)
		}
		if err := liveBot.Resume(saved); err != nil {
			log.Fatalf("Failed to resume session: %v", err)
		}
	}

	if *httpAddr != "" {
		startHTTPServer(*httpAddr, opts.Health)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := liveBot.Start(ctx); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	go commandLoop(liveBot)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutdown signal received...")
		liveBot.Submit(bot.ParseCommand("stop"))
	}()

	liveBot.Wait()
	fmt.Println("✅ Bot stopped")
}

// buildOptions wires the bot's collaborators from config and
// environment.
func buildOptions(cfg *config.Config, fileLog *logger.Logger, paper bool, stateDir, journalPath string) (bot.Options, error) {
	opts := bot.Options{Logger: fileLog}

	exchangeCfg := config.ExchangeConfig{Category: "linear"}
	if cfg.Exchange != nil {
		exchangeCfg = *cfg.Exchange
	}

	stream, err := exchange.NewKlineStream(cfg.Symbol, cfg.Interval, exchangeCfg.Category)
	if err != nil {
		return opts, err
	}
	opts.Stream = stream

	if paper {
		opts.Executor = exchange.NewPaperExecutor()
	} else {
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return opts, fmt.Errorf("BYBIT_API_KEY and BYBIT_API_SECRET are required for real trading")
		}
		opts.Executor = exchange.NewBybitExecutor(apiKey, apiSecret, exchangeCfg)
	}
	fmt.Printf("🏪 Order executor: %s\n", opts.Executor.Name())

	persist := state.NewStatePersistence(fileLog, stateDir, cfg.Symbol)
	if err := persist.Initialize(); err != nil {
		return opts, err
	}
	opts.Persist = persist

	if journalPath != "" {
		j, err := journal.NewSQLiteJournal(journalPath, cfg.Symbol)
		if err != nil {
			return opts, err
		}
		opts.Journal = j
	}

	opts.Notifier = buildNotifier(cfg)
	opts.Health = monitoring.NewHealthChecker()
	return opts, nil
}

// buildNotifier assembles the enabled notification channels. Secrets
// come from the environment.
func buildNotifier(cfg *config.Config) notifications.Notifier {
	if cfg.Notifications == nil {
		return nil
	}

	var fanout notifications.Fanout
	if cfg.Notifications.TelegramEnabled {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		chatID := os.Getenv("TELEGRAM_CHAT_ID")
		if token != "" && chatID != "" {
			fanout = append(fanout, notifications.NewTelegramNotifier(token, chatID))
		} else {
			log.Println("Warning: Telegram enabled but TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID not set")
		}
	}
	if cfg.Notifications.DiscordEnabled {
		webhook := os.Getenv("DISCORD_WEBHOOK_URL")
		if webhook != "" {
			fanout = append(fanout, notifications.NewDiscordNotifier(webhook))
		} else {
			log.Println("Warning: Discord enabled but DISCORD_WEBHOOK_URL not set")
		}
	}
	if len(fanout) == 0 {
		return nil
	}
	return fanout
}

func startHTTPServer(addr string, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if health != nil {
		mux.Handle("/healthz", health)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		fmt.Printf("📡 Metrics and health on %s\n", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server failed: %v", err)
		}
	}()
}

// commandLoop feeds operator stdin commands into the bot's event queue
// and prints replies.
func commandLoop(liveBot *bot.LiveBot) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("💬 Type 'help' for available commands")
	for scanner.Scan() {
		cmd := bot.ParseCommand(scanner.Text())
		if cmd == nil {
			continue
		}
		liveBot.Submit(cmd)
		select {
		case reply := <-cmd.ReplyCh:
			fmt.Println(reply)
		case <-time.After(10 * time.Second):
			fmt.Println("(no reply, bot busy)")
		}
		if cmd.Name == "stop" {
			return
		}
	}
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		return fmt.Errorf("env file %s not found", envFile)
	}
	return godotenv.Load(envFile)
}
