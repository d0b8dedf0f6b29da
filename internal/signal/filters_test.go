package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func trendSnapshot(close, ema, slope float64) indicators.Snapshot {
	return indicators.Snapshot{
		Bar:      types.OHLCV{Close: close},
		EMA:      ema,
		EMASlope: slope,
		Ready:    true,
	}
}

func TestTrendFilter(t *testing.T) {
	f := TrendFilter{}

	tests := []struct {
		name      string
		snap      indicators.Snapshot
		direction types.Side
		want      bool
	}{
		{"long above rising ema", trendSnapshot(105, 100, 0.2), types.SideLong, true},
		{"long above falling ema", trendSnapshot(105, 100, -0.2), types.SideLong, false},
		{"long below rising ema", trendSnapshot(95, 100, 0.2), types.SideLong, false},
		{"short below falling ema", trendSnapshot(95, 100, -0.2), types.SideShort, true},
		{"short below rising ema", trendSnapshot(95, 100, 0.2), types.SideShort, false},
		{"short above falling ema", trendSnapshot(105, 100, -0.2), types.SideShort, false},
		{"flat slope rejects long", trendSnapshot(105, 100, 0), types.SideLong, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Apply(tt.snap, tt.direction))
		})
	}
}

func TestTrendFilter_RejectsNaN(t *testing.T) {
	f := TrendFilter{}
	snap := trendSnapshot(105, math.NaN(), 0.2)
	assert.False(t, f.Apply(snap, types.SideLong))
}

func TestMTFRSIFilter(t *testing.T) {
	f := NewMTFRSIFilter()

	tests := []struct {
		name      string
		mtf       float64
		direction types.Side
		want      bool
	}{
		{"long above midline", 62, types.SideLong, true},
		{"long below midline", 45, types.SideLong, false},
		{"short below midline", 38, types.SideShort, true},
		{"short above midline", 55, types.SideShort, false},
		{"exactly midline rejects long", 50, types.SideLong, false},
		{"exactly midline rejects short", 50, types.SideShort, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := indicators.Snapshot{MTFRSI: tt.mtf, Ready: true}
			assert.Equal(t, tt.want, f.Apply(snap, tt.direction))
		})
	}
}

func TestMTFRSIFilter_RejectsNaN(t *testing.T) {
	f := NewMTFRSIFilter()
	snap := indicators.Snapshot{MTFRSI: math.NaN(), Ready: true}
	assert.False(t, f.Apply(snap, types.SideLong))
}
