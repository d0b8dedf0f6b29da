package signal

import (
	"math"

	"github.com/vlemaire/triple-rsi-bot/internal/indicators"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Filter is a confirmation strategy evaluated once the Heikin Ashi
// color has confirmed a pending signal. All enabled filters must pass
// for the signal to fire.
type Filter interface {
	Name() string
	Apply(snap indicators.Snapshot, direction types.Side) bool
}

// TrendFilter requires price above a rising EMA for longs, below a
// falling EMA for shorts.
type TrendFilter struct{}

func (TrendFilter) Name() string { return "trend" }

func (TrendFilter) Apply(snap indicators.Snapshot, direction types.Side) bool {
	if math.IsNaN(snap.EMA) || math.IsNaN(snap.EMASlope) {
		return false
	}
	switch direction {
	case types.SideLong:
		return snap.Bar.Close > snap.EMA && snap.EMASlope > 0
	case types.SideShort:
		return snap.Bar.Close < snap.EMA && snap.EMASlope < 0
	default:
		return false
	}
}

// MTFRSIFilter requires the higher-timeframe RSI to agree with the
// signal direction: above the midline for longs, below for shorts.
type MTFRSIFilter struct {
	Midline float64
}

// NewMTFRSIFilter creates the filter with the standard midline of 50.
func NewMTFRSIFilter() MTFRSIFilter {
	return MTFRSIFilter{Midline: 50}
}

func (f MTFRSIFilter) Name() string { return "mtf_rsi" }

func (f MTFRSIFilter) Apply(snap indicators.Snapshot, direction types.Side) bool {
	if math.IsNaN(snap.MTFRSI) {
		return false
	}
	switch direction {
	case types.SideLong:
		return snap.MTFRSI > f.Midline
	case types.SideShort:
		return snap.MTFRSI < f.Midline
	default:
		return false
	}
}
