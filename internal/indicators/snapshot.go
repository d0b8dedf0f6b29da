package indicators

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	boterrors "github.com/vlemaire/triple-rsi-bot/internal/errors"
	"github.com/vlemaire/triple-rsi-bot/pkg/config"
	"github.com/vlemaire/triple-rsi-bot/pkg/types"
)

// Snapshot carries every indicator value derived for one closed bar.
// The decision core reads snapshots and never recomputes indicators.
type Snapshot struct {
	Index int
	Bar   types.OHLCV

	// RSI values keyed by "RSI_<period>".
	RSI map[string]float64

	EMA      float64
	EMASlope float64

	HA types.HeikinAshi

	// RSI on the higher timeframe, carried forward between completed
	// higher-timeframe candles.
	MTFRSI float64

	// Ready is false while any indicator is still warming up. The
	// engine skips bars until the snapshot is ready.
	Ready bool
}

// RSIKey builds the snapshot map key for a period.
func RSIKey(period int) string {
	return fmt.Sprintf("RSI_%d", period)
}

// Provider computes snapshots incrementally, one per closed bar.
type Provider struct {
	rsis  []*RSI
	ema   *EMA
	ha    *HeikinAshiCalculator
	mtf   *RSI
	index int

	mtfInterval time.Duration
	mtfBucket   time.Time
	mtfClose    float64
	mtfOpen     bool
	mtfValue    float64
}

// NewProvider builds a provider from the strategy configuration.
func NewProvider(cfg config.StrategyConfig) (*Provider, error) {
	mtfInterval, err := ParseInterval(cfg.MTFInterval)
	if err != nil {
		return nil, err
	}

	rsis := make([]*RSI, len(cfg.RSIPeriods))
	for i, period := range cfg.RSIPeriods {
		rsis[i] = NewRSI(period)
	}

	return &Provider{
		rsis:        rsis,
		ema:         NewEMA(cfg.EMAPeriod, cfg.SlopeLookback),
		ha:          NewHeikinAshiCalculator(),
		mtf:         NewRSI(cfg.MTFRSIPeriod),
		mtfInterval: mtfInterval,
		mtfValue:    math.NaN(),
	}, nil
}

// OnBar consumes the next closed bar and returns its snapshot.
func (p *Provider) OnBar(bar types.OHLCV) Snapshot {
	snap := Snapshot{
		Index: p.index,
		Bar:   bar,
		RSI:   make(map[string]float64, len(p.rsis)),
		Ready: true,
	}
	p.index++

	for _, r := range p.rsis {
		v := r.Update(bar.Close)
		snap.RSI[RSIKey(r.Period())] = v
		if math.IsNaN(v) {
			snap.Ready = false
		}
	}

	p.ema.Update(bar.Close)
	snap.EMA = p.ema.Value()
	snap.EMASlope = p.ema.Slope()
	if !p.ema.Ready() {
		snap.Ready = false
	}

	snap.HA = p.ha.Update(bar)

	p.updateMTF(bar)
	snap.MTFRSI = p.mtfValue
	if math.IsNaN(p.mtfValue) {
		snap.Ready = false
	}

	return snap
}

// updateMTF folds base bars into higher-timeframe candles. A candle
// completes when a bar lands in a new bucket; its close then feeds the
// higher-timeframe RSI.
func (p *Provider) updateMTF(bar types.OHLCV) {
	bucket := bar.Timestamp.Truncate(p.mtfInterval)
	if p.mtfOpen && !bucket.Equal(p.mtfBucket) {
		p.mtfValue = p.mtf.Update(p.mtfClose)
	}
	p.mtfBucket = bucket
	p.mtfClose = bar.Close
	p.mtfOpen = true
}

// ParseInterval converts interval strings like "1m", "15m", "1h", "4h"
// or "1d" to a duration.
func ParseInterval(interval string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(interval))
	if len(s) < 2 {
		return 0, boterrors.NewConfigError("indicators", "invalid interval %q", interval)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, boterrors.NewConfigError("indicators", "invalid interval %q", interval)
	}
	switch s[len(s)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, boterrors.NewConfigError("indicators", "invalid interval unit in %q", interval)
	}
}
