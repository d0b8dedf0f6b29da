package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func entrySnapshot(close, haLow, haHigh float64) indicators.Snapshot {
	return indicators.Snapshot{
		Index: 10,
		Bar: types.OHLCV{
			Close:     close,
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		HA:    types.HeikinAshi{Low: haLow, High: haHigh},
		Ready: true,
	}
}

func TestManager_OpenLongLevels(t *testing.T) {
	m := NewManager(0.001, 0.5, 1)

	tr, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.InDelta(t, 98*0.999, tr.StopLoss, 1e-9)
	risk := 100 - 98*0.999
	assert.InDelta(t, 100+0.5*risk, tr.TakeProfit, 1e-9)
	assert.InDelta(t, 10/risk, tr.Quantity, 1e-9)
	assert.Equal(t, StatusOpen, tr.Status)
	assert.NotEmpty(t, tr.ID)
}

func TestManager_OpenShortLevels(t *testing.T) {
	m := NewManager(0.001, 0.5, 1)

	tr, err := m.Open(types.SideShort, entrySnapshot(100, 99, 102), 10)
	require.NoError(t, err)

	assert.InDelta(t, 102*1.001, tr.StopLoss, 1e-9)
	risk := 102*1.001 - 100
	assert.InDelta(t, 100-0.5*risk, tr.TakeProfit, 1e-9)
	assert.Greater(t, tr.StopLoss, tr.EntryPrice)
	assert.Less(t, tr.TakeProfit, tr.EntryPrice)
}

func TestManager_DoubleOpenRejected(t *testing.T) {
	m := NewManager(0.001, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	_, err = m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.Error(t, err)
	assert.Equal(t, boterrors.ErrorCategoryInvariant, boterrors.CategoryOf(err))
	assert.NotNil(t, m.OpenTrade())
}

func TestManager_RejectsStopOnWrongSide(t *testing.T) {
	m := NewManager(0.001, 0.5, 1)

	// HA low above the entry close: risk would be negative.
	_, err := m.Open(types.SideLong, entrySnapshot(100, 101, 102), 10)
	require.Error(t, err)
	assert.Equal(t, boterrors.ErrorCategoryInvariant, boterrors.CategoryOf(err))
	assert.Nil(t, m.OpenTrade())
}

func TestManager_LongStopLoss(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	tr, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	closed := m.OnBar(types.OHLCV{Open: 99, High: 99.5, Low: 97.5, Close: 98.5}, 11)
	require.NotNil(t, closed)
	assert.Equal(t, StatusClosedSL, closed.Status)
	assert.Equal(t, tr.StopLoss, closed.ExitPrice)
	// Loss is exactly the risk size.
	assert.InDelta(t, -10.0, closed.PnL, 1e-9)
	assert.Nil(t, m.OpenTrade())
}

func TestManager_LongTakeProfit(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	tr, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	closed := m.OnBar(types.OHLCV{Open: 100.5, High: 101.5, Low: 100.2, Close: 101.2}, 11)
	require.NotNil(t, closed)
	assert.Equal(t, StatusClosedTP, closed.Status)
	assert.Equal(t, tr.TakeProfit, closed.ExitPrice)
	// Gain is the risk size scaled by the TP ratio.
	assert.InDelta(t, 5.0, closed.PnL, 1e-9)
}

func TestManager_StopBeforeTargetTieBreak(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	// One bar spanning both the stop (98) and the target (101): the
	// stop wins.
	closed := m.OnBar(types.OHLCV{Open: 100, High: 102, Low: 97, Close: 100}, 11)
	require.NotNil(t, closed)
	assert.Equal(t, StatusClosedSL, closed.Status)
	assert.InDelta(t, -10.0, closed.PnL, 1e-9)
}

func TestManager_ShortExits(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	// Entry 100, stop 102, target 99.
	_, err := m.Open(types.SideShort, entrySnapshot(100, 99, 102), 10)
	require.NoError(t, err)

	// Neither level touched.
	assert.Nil(t, m.OnBar(types.OHLCV{Open: 100, High: 101, Low: 99.5, Close: 100.5}, 11))

	// Target touched.
	closed := m.OnBar(types.OHLCV{Open: 100, High: 100.5, Low: 98.8, Close: 99.2}, 12)
	require.NotNil(t, closed)
	assert.Equal(t, StatusClosedTP, closed.Status)
	assert.InDelta(t, 5.0, closed.PnL, 1e-9)
}

func TestManager_ShortTieBreakTakesStop(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideShort, entrySnapshot(100, 99, 102), 10)
	require.NoError(t, err)

	closed := m.OnBar(types.OHLCV{Open: 100, High: 103, Low: 98, Close: 100}, 11)
	require.NotNil(t, closed)
	assert.Equal(t, StatusClosedSL, closed.Status)
	assert.InDelta(t, -10.0, closed.PnL, 1e-9)
}

func TestManager_GainMultiplier(t *testing.T) {
	m := NewManager(0, 0.5, 2)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	closed := m.OnBar(types.OHLCV{Open: 100.5, High: 101.5, Low: 100.2, Close: 101.2}, 11)
	require.NotNil(t, closed)
	// 5.0 raw gain doubled; losses are never scaled.
	assert.InDelta(t, 10.0, closed.PnL, 1e-9)
}

func TestManager_ManualClose(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	closed, err := m.Close(100.8, at, 15, "operator close")
	require.NoError(t, err)
	assert.Equal(t, StatusClosedManual, closed.Status)
	assert.Equal(t, "operator close", closed.Note)
	assert.InDelta(t, (100.8-100)*5, closed.PnL, 1e-9) // quantity = 10/2

	_, err = m.Close(100, at, 16, "again")
	assert.Error(t, err)
}

func TestManager_SubmissionLifecycle(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)

	require.NoError(t, m.MarkSubmitted())
	assert.Equal(t, StatusPendingConfirmation, m.OpenTrade().Status)

	require.NoError(t, m.ConfirmOpen())
	assert.Equal(t, StatusOpen, m.OpenTrade().Status)
}

func TestManager_FailOpen(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)
	require.NoError(t, m.MarkSubmitted())

	closed, err := m.FailOpen("order rejected after 3 attempts, unconfirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusClosedManual, closed.Status)
	assert.Equal(t, 0.0, closed.PnL)
	assert.Contains(t, closed.Note, "unconfirmed")
	assert.Nil(t, m.OpenTrade())
	assert.Len(t, m.History(), 1)
}

func TestManager_HistoryAccumulates(t *testing.T) {
	m := NewManager(0, 0.5, 1)

	_, err := m.Open(types.SideLong, entrySnapshot(100, 98, 101), 10)
	require.NoError(t, err)
	m.OnBar(types.OHLCV{Open: 99, High: 99, Low: 97, Close: 98}, 11)

	_, err = m.Open(types.SideShort, entrySnapshot(100, 99, 102), 10)
	require.NoError(t, err)
	m.OnBar(types.OHLCV{Open: 100, High: 100, Low: 98, Close: 99}, 12)

	history := m.History()
	require.Len(t, history, 2)
	assert.Equal(t, StatusClosedSL, history[0].Status)
	assert.Equal(t, StatusClosedTP, history[1].Status)
}
