package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlemaire/triple-rsi-bot/internal/logger"
	"github.com/vlemaire/triple-rsi-bot/internal/risk"
	"github.com/vlemaire/triple-rsi-bot/internal/sizing"
	"github.com/vlemaire/triple-rsi-bot/internal/trade"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	dir := t.TempDir()
	old, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })

	log, err := logger.NewLogger("BTCUSDT", "1m")
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestStatePersistence_RoundTrip(t *testing.T) {
	log := testLogger(t)
	dir := t.TempDir()

	sp := NewStatePersistence(log, dir, "BTCUSDT")
	require.NoError(t, sp.Initialize())

	saved := NewSessionState("BTCUSDT")
	saved.Balance = 987.5
	saved.Risk = risk.State{Mode: risk.ModeEmergency, EmergencyReason: "test", CumulativeLoss: 120}
	saved.Streak = sizing.StreakState{ConsecutiveLosses: 2}
	saved.OpenTrade = &trade.Trade{
		ID:         "abc",
		Direction:  types.SideLong,
		EntryPrice: 100,
		StopLoss:   98,
		TakeProfit: 101,
		Status:     trade.StatusOpen,
	}
	sp.Update(saved)
	require.NoError(t, sp.SaveState())

	reloaded := NewStatePersistence(log, dir, "BTCUSDT")
	state, err := reloaded.LoadState()
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, 987.5, state.Balance)
	assert.Equal(t, risk.ModeEmergency, state.Risk.Mode)
	assert.Equal(t, 2, state.Streak.ConsecutiveLosses)
	require.NotNil(t, state.OpenTrade)
	assert.Equal(t, "abc", state.OpenTrade.ID)
}

func TestStatePersistence_MissingFileStartsClean(t *testing.T) {
	log := testLogger(t)
	sp := NewStatePersistence(log, t.TempDir(), "BTCUSDT")
	require.NoError(t, sp.Initialize())

	state, err := sp.LoadState()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStatePersistence_SymbolMismatchIgnored(t *testing.T) {
	log := testLogger(t)
	dir := t.TempDir()

	sp := NewStatePersistence(log, dir, "BTCUSDT")
	require.NoError(t, sp.Initialize())
	require.NoError(t, sp.SaveState())

	// Rename the file so it is loaded for a different symbol.
	require.NoError(t, os.Rename(
		filepath.Join(dir, "BTCUSDT_state.json"),
		filepath.Join(dir, "ETHUSDT_state.json"),
	))

	other := NewStatePersistence(log, dir, "ETHUSDT")
	state, err := other.LoadState()
	require.NoError(t, err)
	assert.Nil(t, state, "mismatched symbol falls back to clean state")
}

func TestStatePersistence_BackupCreatedOnSecondSave(t *testing.T) {
	log := testLogger(t)
	dir := t.TempDir()

	sp := NewStatePersistence(log, dir, "BTCUSDT")
	require.NoError(t, sp.Initialize())
	require.NoError(t, sp.SaveState())
	require.NoError(t, sp.SaveState())

	_, err := os.Stat(filepath.Join(dir, "BTCUSDT_state_backup.json"))
	assert.NoError(t, err)

	// No stray temp file left behind.
	_, err = os.Stat(filepath.Join(dir, "BTCUSDT_state.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestSessionState_Fresh(t *testing.T) {
	s := NewSessionState("BTCUSDT")
	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.NotEmpty(t, s.Version)
	assert.WithinDuration(t, time.Now(), s.SessionStart, time.Minute)
}
