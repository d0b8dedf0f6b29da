package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		RSIPeriods:    []int{2, 3, 4},
		RSIOversold:   30,
		RSIOverbought: 70,
		MTFRSIPeriod:  2,
		MTFInterval:   "5m",
		EMAPeriod:     3,
		SlopeLookback: 2,
		SLBufferPct:   0.001,
		TPRatio:       0.5,
	}
}

func generateBars(n int, start time.Time, step time.Duration) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	price := 100.0
	for i := range bars {
		drift := math.Sin(float64(i)/3) * 2
		close := price + drift
		bars[i] = types.OHLCV{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      price,
			High:      math.Max(price, close) + 0.5,
			Low:       math.Min(price, close) - 0.5,
			Close:     close,
			Volume:    1000,
		}
		price = close
	}
	return bars
}

func TestProvider_SnapshotKeysAndIndex(t *testing.T) {
	provider, err := NewProvider(testStrategyConfig())
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := generateBars(40, start, time.Minute)

	var last Snapshot
	for i, bar := range bars {
		last = provider.OnBar(bar)
		assert.Equal(t, i, last.Index)
	}

	assert.Contains(t, last.RSI, "RSI_2")
	assert.Contains(t, last.RSI, "RSI_3")
	assert.Contains(t, last.RSI, "RSI_4")
}

func TestProvider_ReadyAfterWarmup(t *testing.T) {
	provider, err := NewProvider(testStrategyConfig())
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := generateBars(40, start, time.Minute)

	first := provider.OnBar(bars[0])
	assert.False(t, first.Ready, "first bar can never be ready")

	var last Snapshot
	for _, bar := range bars[1:] {
		last = provider.OnBar(bar)
	}
	assert.True(t, last.Ready, "snapshot should be ready after warmup")
	assert.False(t, math.IsNaN(last.EMA))
	assert.False(t, math.IsNaN(last.EMASlope))
	assert.False(t, math.IsNaN(last.MTFRSI))
}

func TestProvider_MTFCarriesBetweenBuckets(t *testing.T) {
	provider, err := NewProvider(testStrategyConfig())
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := generateBars(40, start, time.Minute)

	var snaps []Snapshot
	for _, bar := range bars {
		snaps = append(snaps, provider.OnBar(bar))
	}

	// Within a 5m bucket the MTF RSI must not change; it may only move
	// on bucket boundaries.
	for i := 1; i < len(snaps); i++ {
		sameBucket := snaps[i].Bar.Timestamp.Truncate(5*time.Minute) ==
			snaps[i-1].Bar.Timestamp.Truncate(5*time.Minute)
		if sameBucket && !math.IsNaN(snaps[i-1].MTFRSI) {
			assert.Equal(t, snaps[i-1].MTFRSI, snaps[i].MTFRSI,
				"MTF RSI changed mid-bucket at index %d", i)
		}
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1m", time.Minute, false},
		{"15m", 15 * time.Minute, false},
		{"1h", time.Hour, false},
		{"4h", 4 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"", 0, true},
		{"m", 0, true},
		{"15x", 0, true},
		{"-5m", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "interval %q", tt.in)
		} else {
			assert.NoError(t, err, "interval %q", tt.in)
			assert.Equal(t, tt.want, got, "interval %q", tt.in)
		}
	}
}
