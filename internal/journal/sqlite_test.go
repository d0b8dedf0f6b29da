package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/signal"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func openTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"), "BTCUSDT")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal_RecordTrade(t *testing.T) {
	j := openTestJournal(t)

	closed := &trade.Trade{
		ID:         "t-1",
		Direction:  types.SideLong,
		EntryPrice: 100,
		EntryTime:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Size:       10,
		Quantity:   5,
		StopLoss:   98,
		TakeProfit: 101,
		Status:     trade.StatusClosedTP,
		ExitPrice:  101,
		ExitTime:   time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		PnL:        5,
	}
	require.NoError(t, j.RecordTrade(closed))

	var count int
	var status string
	var pnl float64
	row := j.db.QueryRow(`SELECT COUNT(*), status, pnl FROM trades WHERE trade_id = ?`, "t-1")
	require.NoError(t, row.Scan(&count, &status, &pnl))
	assert.Equal(t, 1, count)
	assert.Equal(t, "closed_tp", status)
	assert.Equal(t, 5.0, pnl)
}

func TestSQLiteJournal_RecordSignalAndEmergency(t *testing.T) {
	j := openTestJournal(t)

	p := signal.PendingSignal{
		Direction: types.SideShort,
		BarIndex:  42,
		RaisedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, j.RecordSignal(p, "armed"))
	require.NoError(t, j.RecordSignal(p, "dropped"))

	state := risk.State{DailyLoss: 50, CumulativeLoss: 200, ConsecutiveLosses: 5}
	require.NoError(t, j.RecordEmergency("consecutive loss limit reached: 5", state, time.Now()))
	require.NoError(t, j.RecordEmergencyClear("reviewed", time.Now()))

	var signals, events int
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&signals))
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM emergency_events`).Scan(&events))
	assert.Equal(t, 2, signals)
	assert.Equal(t, 2, events)
}

func TestNoopJournal(t *testing.T) {
	var j Journal = Noop{}
	assert.NoError(t, j.RecordTrade(&trade.Trade{}))
	assert.NoError(t, j.RecordSignal(signal.PendingSignal{}, "armed"))
	assert.NoError(t, j.RecordEmergency("x", risk.State{}, time.Now()))
	assert.NoError(t, j.RecordEmergencyClear("x", time.Now()))
	assert.NoError(t, j.Close())
}
