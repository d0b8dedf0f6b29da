package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
)

// SQLiteJournal persists trades, signal transitions and emergency
// events to a SQLite database.
type SQLiteJournal struct {
	db     *sql.DB
	symbol string
	mu     sync.Mutex
}

// NewSQLiteJournal opens (or creates) the database and runs migrations.
func NewSQLiteJournal(dbPath, symbol string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &SQLiteJournal{db: db, symbol: symbol}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			trade_id    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			direction   TEXT NOT NULL,
			entry_time  INTEGER NOT NULL,
			entry_price REAL,
			size        REAL,
			quantity    REAL,
			stop_loss   REAL,
			take_profit REAL,
			status      TEXT,
			exit_time   INTEGER,
			exit_price  REAL,
			pnl         REAL,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_entry ON trades(entry_time)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			direction TEXT NOT NULL,
			event     TEXT NOT NULL,
			bar_index INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS emergency_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			event           TEXT NOT NULL,
			reason          TEXT,
			daily_loss      REAL,
			cumulative_loss REAL,
			loss_streak     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emergency_ts ON emergency_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordTrade writes a closed (or opened) trade row.
func (j *SQLiteJournal) RecordTrade(t *trade.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var exitTime int64
	if !t.ExitTime.IsZero() {
		exitTime = t.ExitTime.Unix()
	}

	_, err := j.db.Exec(`INSERT INTO trades
		(trade_id, symbol, direction, entry_time, entry_price, size, quantity,
		 stop_loss, take_profit, status, exit_time, exit_price, pnl, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, j.symbol, t.Direction.String(), t.EntryTime.Unix(), t.EntryPrice,
		t.Size, t.Quantity, t.StopLoss, t.TakeProfit, string(t.Status),
		exitTime, t.ExitPrice, t.PnL, t.Note,
	)
	return err
}

// RecordSignal writes a signal transition (armed, dropped, confirmed).
func (j *SQLiteJournal) RecordSignal(p signal.PendingSignal, event string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`INSERT INTO signals
		(timestamp, symbol, direction, event, bar_index)
		VALUES (?,?,?,?,?)`,
		p.RaisedAt.Unix(), j.symbol, p.Direction.String(), event, p.BarIndex,
	)
	return err
}

// RecordEmergency writes an emergency trip.
func (j *SQLiteJournal) RecordEmergency(reason string, state risk.State, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`INSERT INTO emergency_events
		(timestamp, symbol, event, reason, daily_loss, cumulative_loss, loss_streak)
		VALUES (?,?,?,?,?,?,?)`,
		at.Unix(), j.symbol, "triggered", reason,
		state.DailyLoss, state.CumulativeLoss, state.ConsecutiveLosses,
	)
	return err
}

// RecordEmergencyClear writes a manual emergency clear with its reason.
func (j *SQLiteJournal) RecordEmergencyClear(reason string, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`INSERT INTO emergency_events
		(timestamp, symbol, event, reason, daily_loss, cumulative_loss, loss_streak)
		VALUES (?,?,?,?,0,0,0)`,
		at.Unix(), j.symbol, "cleared", reason,
	)
	return err
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
