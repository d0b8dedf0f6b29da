package indicators

import (
	"math"

	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// HeikinAshiCalculator derives smoothed Heikin Ashi candles from raw
// bars. The recurrence depends on the previous HA candle, so bars must
// be fed in order.
type HeikinAshiCalculator struct {
	prevOpen  float64
	prevClose float64
	seen      bool
}

// NewHeikinAshiCalculator creates an empty calculator.
func NewHeikinAshiCalculator() *HeikinAshiCalculator {
	return &HeikinAshiCalculator{}
}

// Update derives the HA candle for the next raw bar.
//
//	haClose = (O + H + L + C) / 4
//	haOpen  = (prevHAOpen + prevHAClose) / 2, first bar (O + C) / 2
//	haHigh  = max(H, haOpen, haClose)
//	haLow   = min(L, haOpen, haClose)
func (h *HeikinAshiCalculator) Update(bar types.OHLCV) types.HeikinAshi {
	haClose := (bar.Open + bar.High + bar.Low + bar.Close) / 4

	var haOpen float64
	if !h.seen {
		haOpen = (bar.Open + bar.Close) / 2
		h.seen = true
	} else {
		haOpen = (h.prevOpen + h.prevClose) / 2
	}

	haHigh := math.Max(bar.High, math.Max(haOpen, haClose))
	haLow := math.Min(bar.Low, math.Min(haOpen, haClose))

	h.prevOpen = haOpen
	h.prevClose = haClose

	return types.HeikinAshi{
		Open:  haOpen,
		High:  haHigh,
		Low:   haLow,
		Close: haClose,
		Color: haColor(haOpen, haClose),
	}
}

func haColor(open, close float64) types.CandleColor {
	switch {
	case close > open:
		return types.ColorGreen
	case close < open:
		return types.ColorRed
	default:
		return types.ColorDoji
	}
}

// Reset clears the recurrence state.
func (h *HeikinAshiCalculator) Reset() {
	h.seen = false
	h.prevOpen = 0
	h.prevClose = 0
}
