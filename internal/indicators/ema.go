package indicators

import (
	"math"
)

// EMA computes an exponential moving average incrementally and tracks
// its slope over a configurable lookback of bars.
type EMA struct {
	period   int
	alpha    float64
	lookback int

	value       float64
	initialized bool
	seedSum     float64
	seedCount   int

	// Ring of recent EMA values for the slope calculation.
	history []float64
}

// NewEMA creates an EMA calculator. slopeLookback is the number of bars
// over which the slope is measured.
func NewEMA(period, slopeLookback int) *EMA {
	return &EMA{
		period:   period,
		alpha:    2.0 / float64(period+1),
		lookback: slopeLookback,
		value:    math.NaN(),
	}
}

// Update feeds the next close price and returns the current EMA value,
// NaN while warming up.
func (e *EMA) Update(close float64) float64 {
	if !e.initialized {
		// Seed with the SMA of the first 'period' closes.
		e.seedSum += close
		e.seedCount++
		if e.seedCount < e.period {
			return e.value
		}
		e.value = e.seedSum / float64(e.period)
		e.initialized = true
	} else {
		e.value = close*e.alpha + e.value*(1-e.alpha)
	}

	e.history = append(e.history, e.value)
	if len(e.history) > e.lookback+1 {
		e.history = e.history[1:]
	}
	return e.value
}

// Value returns the last EMA value, NaN while warming up.
func (e *EMA) Value() float64 {
	return e.value
}

// Slope returns the average per-bar change of the EMA over the
// lookback window, NaN until the window is full.
func (e *EMA) Slope() float64 {
	if len(e.history) < e.lookback+1 {
		return math.NaN()
	}
	oldest := e.history[0]
	newest := e.history[len(e.history)-1]
	return (newest - oldest) / float64(e.lookback)
}

// Ready reports whether both the EMA value and its slope are defined.
func (e *EMA) Ready() bool {
	return e.initialized && len(e.history) >= e.lookback+1
}
