package types

import "time"

// OHLCV is a single closed market bar. Bars are immutable once closed
// and must arrive in strictly increasing timestamp order.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// HeikinAshi is the smoothed candle derived recursively from the raw
// bar sequence. The indicator provider owns the recurrence; consumers
// only read the result.
type HeikinAshi struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Color CandleColor
}

// CandleColor is the Heikin Ashi close-over-open color.
type CandleColor int

const (
	ColorDoji CandleColor = iota
	ColorGreen
	ColorRed
)

func (c CandleColor) String() string {
	switch c {
	case ColorGreen:
		return "GREEN"
	case ColorRed:
		return "RED"
	default:
		return "DOJI"
	}
}

// Side is a trade direction.
type Side int

const (
	SideNone Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Sign returns +1 for long, -1 for short and 0 otherwise, for PnL math.
func (s Side) Sign() float64 {
	switch s {
	case SideLong:
		return 1
	case SideShort:
		return -1
	default:
		return 0
	}
}

// Opposite returns the mirrored direction.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideNone
	}
}

type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}
