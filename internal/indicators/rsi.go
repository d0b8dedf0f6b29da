package indicators

import (
	"math"
)

// RSI computes the Relative Strength Index incrementally with Wilder
// smoothing. Values are undefined (NaN) until period+1 closes have been
// seen.
type RSI struct {
	period    int
	avgGain   float64
	avgLoss   float64
	prevClose float64
	seen      int
	sumGain   float64
	sumLoss   float64
	value     float64
}

// NewRSI creates an RSI calculator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period, value: math.NaN()}
}

// Update feeds the next close price and returns the current RSI value,
// NaN while warming up.
func (r *RSI) Update(close float64) float64 {
	if r.seen == 0 {
		r.prevClose = close
		r.seen++
		return r.value
	}

	change := close - r.prevClose
	r.prevClose = close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.seen <= r.period {
		// Seed with the simple average of the first 'period' changes.
		r.sumGain += gain
		r.sumLoss += loss
		r.seen++
		if r.seen > r.period {
			r.avgGain = r.sumGain / float64(r.period)
			r.avgLoss = r.sumLoss / float64(r.period)
			r.value = r.compute()
		}
		return r.value
	}

	// Wilder smoothing.
	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	r.value = r.compute()
	return r.value
}

func (r *RSI) compute() float64 {
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - (100 / (1 + rs))
}

// Value returns the last computed RSI, NaN while warming up.
func (r *RSI) Value() float64 {
	return r.value
}

// Ready reports whether enough closes have been seen.
func (r *RSI) Ready() bool {
	return !math.IsNaN(r.value)
}

// Period returns the configured lookback period.
func (r *RSI) Period() int {
	return r.period
}
