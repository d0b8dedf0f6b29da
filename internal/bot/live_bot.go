package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/engine"
	"github.com/vlemaire/triple-rsi-bot/internal/exchange"
	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/internal/journal"
	"github.com/vlemaire/triple-rsi-bot/internal/logger"
	"github.com/vlemaire/triple-rsi-bot/internal/monitoring"
	"github.com/vlemaire/triple-rsi-bot/internal/notifications"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/state"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

const orderRetryAttempts = 3

// Overridable for tests.
var orderRetryDelay = 2 * time.Second

type eventKind int

const (
	evBar eventKind = iota
	evCommand
	evDailyReset
)

// event is one unit of work for the single worker goroutine. Bar
// closes and operator commands share the queue so the engine only ever
// sees one event at a time, in arrival order.
type event struct {
	kind eventKind
	bar  types.OHLCV
	cmd  *Command
}

// LiveBot drives the decision engine from a live market stream.
type LiveBot struct {
	cfg      *config.Config
	engine   *engine.Engine
	provider *indicators.Provider

	stream   exchange.BarStream
	executor exchange.OrderExecutor
	journal  journal.Journal
	log      *logger.Logger
	notifier notifications.Notifier
	persist  *state.StatePersistence
	health   *monitoring.HealthChecker

	events chan event
	cron   *cron.Cron

	mu       sync.Mutex
	stopping bool
	done     chan struct{}
}

// Options collects the live bot's collaborators. Nil fields get no-op
// defaults where one exists.
type Options struct {
	Stream   exchange.BarStream
	Executor exchange.OrderExecutor
	Journal  journal.Journal
	Logger   *logger.Logger
	Notifier notifications.Notifier
	Persist  *state.StatePersistence
	Health   *monitoring.HealthChecker
}

// NewLiveBot wires a live bot.
func NewLiveBot(cfg *config.Config, opts Options) (*LiveBot, error) {
	provider, err := indicators.NewProvider(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Journal == nil {
		opts.Journal = journal.Noop{}
	}

	b := &LiveBot{
		cfg:      cfg,
		provider: provider,
		stream:   opts.Stream,
		executor: opts.Executor,
		journal:  opts.Journal,
		log:      opts.Logger,
		notifier: opts.Notifier,
		persist:  opts.Persist,
		health:   opts.Health,
		events:   make(chan event, 256),
		done:     make(chan struct{}),
	}
	b.engine = engine.New(cfg, b)
	return b, nil
}

// Resume reinstates a saved session before the first bar: balance,
// risk counters, sizing streak, pending signal and the open trade all
// pick up where the previous process left off.
func (b *LiveBot) Resume(saved *state.SessionState) error {
	if saved == nil {
		return nil
	}
	if saved.Balance != 0 {
		b.engine.RestoreBalance(saved.Balance)
	}
	b.engine.RestoreRisk(saved.Risk)
	b.engine.RestoreStreak(saved.Streak)
	if saved.Pending.Direction != types.SideNone {
		b.engine.RestorePending(saved.Pending)
	}
	if saved.OpenTrade != nil {
		if err := b.engine.Trades().Restore(saved.OpenTrade); err != nil {
			return err
		}
	}
	b.logf("Session resumed: balance=%.2f mode=%s", b.engine.Balance(), saved.Risk.Mode)
	return nil
}

// Start launches the stream pump, the daily reset cron and the worker.
// It returns immediately; Wait blocks until shutdown.
func (b *LiveBot) Start(ctx context.Context) error {
	if err := b.stream.Start(ctx); err != nil {
		return err
	}

	b.cron = cron.New()
	spec := fmt.Sprintf("0 %d * * *", b.cfg.Safety.DayBoundaryHour)
	if _, err := b.cron.AddFunc(spec, func() {
		b.enqueue(event{kind: evDailyReset})
	}); err != nil {
		return boterrors.NewConfigError("bot", "invalid daily reset schedule: %v", err)
	}
	b.cron.Start()

	go b.pumpBars(ctx)
	go b.worker(ctx)
	return nil
}

// Wait blocks until the worker has drained and exited.
func (b *LiveBot) Wait() {
	<-b.done
}

// Submit enqueues an operator command.
func (b *LiveBot) Submit(cmd *Command) {
	b.enqueue(event{kind: evCommand, cmd: cmd})
}

func (b *LiveBot) enqueue(ev event) {
	b.mu.Lock()
	stopping := b.stopping
	b.mu.Unlock()
	if stopping {
		if ev.cmd != nil {
			ev.cmd.reply("bot is stopping")
		}
		return
	}
	b.events <- ev
}

func (b *LiveBot) pumpBars(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-b.stream.Errors():
			if !ok {
				return
			}
			b.logError("stream failed", err)
			monitoring.RecordError(string(boterrors.CategoryOf(err)))
			if b.health != nil {
				b.health.SetConnected(false)
				b.health.RecordFailure(err.Error())
			}
		case bar, ok := <-b.stream.Bars():
			if !ok {
				return
			}
			b.enqueue(event{kind: evBar, bar: bar})
		}
	}
}

// worker applies events in order. This is the only goroutine that
// touches the engine.
func (b *LiveBot) worker(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			return
		case ev := <-b.events:
			switch ev.kind {
			case evBar:
				b.onBar(ctx, ev.bar)
			case evCommand:
				if b.runCommand(ev.cmd) {
					b.shutdown()
					return
				}
			case evDailyReset:
				b.engine.ResetDaily(time.Now())
				b.logf("Daily counters reset")
			}
		}
	}
}

func (b *LiveBot) onBar(ctx context.Context, bar types.OHLCV) {
	snap := b.provider.OnBar(bar)

	if b.health != nil {
		b.health.SetConnected(true)
		b.health.RecordBar(bar.Close, bar.Timestamp)
	}
	monitoring.UpdatePrice(b.cfg.Symbol, bar.Close)

	before := b.engine.OpenTrade()
	b.engine.Step(snap)
	after := b.engine.OpenTrade()

	// A trade opened during this step needs its order submitted.
	// Submission is synchronous within the step: the next event sees
	// the folded outcome.
	if after != nil && (before == nil || before.ID != after.ID) {
		b.submitEntry(ctx, after)
	}

	monitoring.UpdatePendingSignal(b.cfg.Symbol, b.engine.Pending().Direction.Sign())
	monitoring.UpdateBalance(b.cfg.Symbol, b.engine.Balance())
	b.saveSession()
}

// submitEntry pushes the entry order with bounded retries. Exhausted
// retries abandon the trade: it is recorded closed with an unconfirmed
// note and the engine settles it as a no-op close.
func (b *LiveBot) submitEntry(ctx context.Context, t *trade.Trade) {
	if b.executor == nil {
		return
	}
	if err := b.engine.Trades().MarkSubmitted(); err != nil {
		b.logError("mark submitted", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= orderRetryAttempts; attempt++ {
		orderID, err := b.executor.SubmitEntry(ctx, t, b.cfg.Symbol)
		if err == nil {
			if err := b.engine.Trades().ConfirmOpen(); err != nil {
				b.logError("confirm open", err)
			}
			b.logf("Entry order placed: %s (attempt %d)", orderID, attempt)
			return
		}
		lastErr = err
		b.logError(fmt.Sprintf("entry submission attempt %d/%d", attempt, orderRetryAttempts), err)
		monitoring.RecordError(string(boterrors.ErrorCategoryOrder))
		if attempt < orderRetryAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(orderRetryDelay):
			}
		}
	}

	note := fmt.Sprintf("order rejected after %d attempts, unconfirmed: %v", orderRetryAttempts, lastErr)
	closed, err := b.engine.Trades().FailOpen(note)
	if err != nil {
		b.logError("fail open", err)
		return
	}
	b.engine.SettleExternal(closed)
	b.notify("error", fmt.Sprintf("Entry order abandoned: %s", note))
}

func (b *LiveBot) shutdown() {
	b.mu.Lock()
	b.stopping = true
	b.mu.Unlock()

	if b.cron != nil {
		b.cron.Stop()
	}
	if b.stream != nil {
		b.stream.Close()
	}
	if b.persist != nil {
		if err := b.persist.Cleanup(); err != nil {
			b.logError("final state save", err)
		}
	}
	if err := b.journal.Close(); err != nil {
		b.logError("journal close", err)
	}
	b.logf("Bot stopped")
}

func (b *LiveBot) saveSession() {
	if b.persist == nil {
		return
	}
	s := state.NewSessionState(b.cfg.Symbol)
	s.Balance = b.engine.Balance()
	s.OpenTrade = b.engine.OpenTrade()
	s.Pending = b.engine.Pending()
	s.Risk = b.engine.RiskState()
	s.Streak = b.engine.Streak()
	b.persist.Update(s)
}

// Engine event callbacks: pure side effects, never call back into the
// engine.

func (b *LiveBot) OnSignalArmed(p signal.PendingSignal) {
	b.logSignal("Signal armed: %s at bar %d", p.Direction, p.BarIndex)
	monitoring.RecordSignalArmed(b.cfg.Symbol, p.Direction.String())
	if err := b.journal.RecordSignal(p, "armed"); err != nil {
		b.logError("journal signal", err)
	}
}

func (b *LiveBot) OnSignalDropped(p signal.PendingSignal) {
	b.logSignal("Signal dropped by filter: %s", p.Direction)
	if err := b.journal.RecordSignal(p, "dropped"); err != nil {
		b.logError("journal signal", err)
	}
}

func (b *LiveBot) OnTradeOpened(t *trade.Trade) {
	if b.log != nil {
		b.log.LogTradeOpened(t)
	}
	b.notify("info", fmt.Sprintf("%s opened at %.4f (SL %.4f / TP %.4f)",
		t.Direction, t.EntryPrice, t.StopLoss, t.TakeProfit))
}

func (b *LiveBot) OnTradeClosed(t *trade.Trade, s risk.State) {
	if b.log != nil {
		b.log.LogTradeClosed(t, s)
	}
	monitoring.RecordTradeClosed(b.cfg.Symbol, t.Direction.String(), string(t.Status), t.PnL)
	monitoring.UpdateDailyLoss(b.cfg.Symbol, s.DailyLoss)
	if err := b.journal.RecordTrade(t); err != nil {
		b.logError("journal trade", err)
	}

	level := "success"
	if t.PnL < 0 {
		level = "warning"
	}
	b.notify(level, fmt.Sprintf("%s closed (%s): PnL %.2f", t.Direction, t.Status, t.PnL))
}

func (b *LiveBot) OnEmergencyTriggered(reason string, s risk.State) {
	if b.log != nil {
		b.log.LogEmergency(reason, s)
	}
	monitoring.UpdateEmergencyMode(b.cfg.Symbol, true)
	if b.health != nil {
		b.health.SetEmergency(true)
	}
	if err := b.journal.RecordEmergency(reason, s, time.Now()); err != nil {
		b.logError("journal emergency", err)
	}
	b.notify("error", fmt.Sprintf("🚨 EMERGENCY STOP: %s", reason))
}

func (b *LiveBot) notify(level, message string) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.SendAlert(level, message); err != nil {
		b.logError("notification", err)
	}
}

func (b *LiveBot) logf(format string, args ...interface{}) {
	if b.log != nil {
		b.log.Info(format, args...)
	}
}

func (b *LiveBot) logSignal(format string, args ...interface{}) {
	if b.log != nil {
		b.log.Signal(format, args...)
	}
}

func (b *LiveBot) logError(context string, err error) {
	if b.log != nil {
		b.log.LogError(context, err)
	}
}
