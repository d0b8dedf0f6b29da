package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI_WarmupReturnsNaN(t *testing.T) {
	rsi := NewRSI(14)

	for i := 0; i < 14; i++ {
		v := rsi.Update(100.0 + float64(i))
		assert.True(t, math.IsNaN(v), "expected NaN during warmup at close %d", i)
		assert.False(t, rsi.Ready())
	}

	v := rsi.Update(115.0)
	assert.False(t, math.IsNaN(v), "expected value after period+1 closes")
	assert.True(t, rsi.Ready())
}

func TestRSI_AllGainsIs100(t *testing.T) {
	rsi := NewRSI(5)

	var v float64
	for i := 0; i < 10; i++ {
		v = rsi.Update(100.0 + float64(i))
	}

	assert.Equal(t, 100.0, v)
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	rsi := NewRSI(5)

	var v float64
	for i := 0; i < 10; i++ {
		v = rsi.Update(100.0 - float64(i))
	}

	assert.Equal(t, 0.0, v)
}

func TestRSI_ValueInRange(t *testing.T) {
	rsi := NewRSI(14)

	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
		46.03, 46.41, 46.22, 45.64, 46.21, 46.25, 45.71, 46.45,
	}
	for _, c := range closes {
		rsi.Update(c)
	}

	v := rsi.Value()
	assert.True(t, rsi.Ready())
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 100.0)
	// Mostly rising series, RSI should sit in the upper half.
	assert.Greater(t, v, 50.0)
}

func TestRSI_WilderSmoothing(t *testing.T) {
	rsi := NewRSI(2)

	// Changes: +1, +1 seed avgGain=1, avgLoss=0.
	rsi.Update(100)
	rsi.Update(101)
	v := rsi.Update(102)
	assert.Equal(t, 100.0, v)

	// Change -3: avgGain=(1*1+0)/2=0.5, avgLoss=(0*1+3)/2=1.5
	// rs=1/3, rsi=25.
	v = rsi.Update(99)
	assert.InDelta(t, 25.0, v, 1e-9)
}
