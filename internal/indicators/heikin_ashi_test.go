package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

func TestHeikinAshi_FirstBar(t *testing.T) {
	calc := NewHeikinAshiCalculator()

	ha := calc.Update(types.OHLCV{Open: 100, High: 110, Low: 90, Close: 104})

	assert.InDelta(t, 102.0, ha.Open, 1e-9)  // (100+104)/2
	assert.InDelta(t, 101.0, ha.Close, 1e-9) // (100+110+90+104)/4
	assert.InDelta(t, 110.0, ha.High, 1e-9)
	assert.InDelta(t, 90.0, ha.Low, 1e-9)
	assert.Equal(t, types.ColorRed, ha.Color) // close 101 < open 102
}

func TestHeikinAshi_Recurrence(t *testing.T) {
	calc := NewHeikinAshiCalculator()

	first := calc.Update(types.OHLCV{Open: 100, High: 110, Low: 90, Close: 104})
	second := calc.Update(types.OHLCV{Open: 104, High: 112, Low: 102, Close: 110})

	// haOpen = (prevHAOpen + prevHAClose) / 2
	wantOpen := (first.Open + first.Close) / 2
	assert.InDelta(t, wantOpen, second.Open, 1e-9)
	assert.InDelta(t, 107.0, second.Close, 1e-9) // (104+112+102+110)/4
	assert.Equal(t, types.ColorGreen, second.Color)
}

func TestHeikinAshi_HighLowEnvelope(t *testing.T) {
	calc := NewHeikinAshiCalculator()
	calc.Update(types.OHLCV{Open: 100, High: 101, Low: 99, Close: 100})

	// A gap down: HA open from the recurrence sits above the raw high,
	// so HA high must take the open.
	ha := calc.Update(types.OHLCV{Open: 90, High: 91, Low: 89, Close: 90})

	assert.Equal(t, ha.High, ha.Open)
	assert.InDelta(t, 89.0, ha.Low, 1e-9)
	assert.Equal(t, types.ColorRed, ha.Color)
}

func TestHeikinAshi_DojiColor(t *testing.T) {
	calc := NewHeikinAshiCalculator()

	// First bar with haOpen == haClose: (O+C)/2 == (O+H+L+C)/4.
	ha := calc.Update(types.OHLCV{Open: 100, High: 100, Low: 100, Close: 100})
	assert.Equal(t, types.ColorDoji, ha.Color)
}

func TestHeikinAshi_Reset(t *testing.T) {
	calc := NewHeikinAshiCalculator()
	calc.Update(types.OHLCV{Open: 100, High: 110, Low: 90, Close: 104})
	calc.Reset()

	ha := calc.Update(types.OHLCV{Open: 100, High: 110, Low: 90, Close: 104})
	assert.InDelta(t, 102.0, ha.Open, 1e-9) // first-bar seeding again
}
