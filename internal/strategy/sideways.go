package strategy

import (
	"fmt"
	"time"

	"scalpbot-go/internal/indicator"
	"scalpbot-go/internal/market"
)

// SidewaysConfig tunes the oscillation-range detector and the band-touch
// signal generator used when the market is confirmed range-bound.
type SidewaysConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Lookback        int     `yaml:"lookback"`
	RangeATRMult    float64 `yaml:"range_atr_mult"`
	MinOscillations int     `yaml:"min_oscillations"`
	MaxOscillations int     `yaml:"max_oscillations"`
	BandPeriod      int     `yaml:"band_period"`
	BandStdDev      float64 `yaml:"band_std_dev"`
}

// DefaultSidewaysConfig returns the range-trading defaults (disabled).
func DefaultSidewaysConfig() SidewaysConfig {
	return SidewaysConfig{
		Lookback:        10,
		RangeATRMult:    1.5,
		MinOscillations: 2,
		MaxOscillations: 4,
		BandPeriod:      20,
		BandStdDev:      2.0,
	}
}

// DetectOscillation confirms range-bound price action: the window range must
// stay inside an ATR-scaled envelope while highs and lows both oscillate a
// plausible number of times (too few means drift, too many means noise).
func DetectOscillation(cfg SidewaysConfig, s market.Series, atrPeriod int) bool {
	if len(s) < cfg.Lookback || len(s) < atrPeriod+1 {
		return false
	}
	atr, ok := indicator.ATR(s, atrPeriod)
	if !ok || atr <= 0 {
		return false
	}
	window := s.Tail(cfg.Lookback)

	high, low := window[0].High, window[0].Low
	for _, c := range window {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	if high-low > atr*cfg.RangeATRMult {
		return false
	}

	var peaks, valleys int
	for i := 1; i+1 < len(window); i++ {
		if window[i].High > window[i-1].High && window[i].High > window[i+1].High {
			peaks++
		}
		if window[i].Low < window[i-1].Low && window[i].Low < window[i+1].Low {
			valleys++
		}
	}
	return peaks >= cfg.MinOscillations && peaks <= cfg.MaxOscillations &&
		valleys >= cfg.MinOscillations && valleys <= cfg.MaxOscillations
}

// BandSignal generates a mean-reversion signal off a mean±k·stddev band:
// touching the upper band sells, the lower band buys, with confidence scaled
// by penetration depth. A band narrower than 1% of its midpoint is treated
// as untradable.
func BandSignal(cfg SidewaysConfig, symbol string, s market.Series, ts time.Time) Signal {
	price := s.LastClose()
	mean, std, ok := indicator.MeanStd(s.Closes(), cfg.BandPeriod)
	if !ok {
		return hold(symbol, price, ts, "band: insufficient history")
	}
	upper := mean + cfg.BandStdDev*std
	lower := mean - cfg.BandStdDev*std
	if mean == 0 || (upper-lower)/mean < 0.01 {
		return hold(symbol, price, ts, "band: width below 1%")
	}

	switch {
	case price >= upper*0.995:
		conf := (price-upper)/(upper-mean) + 0.5
		if conf > 0.8 {
			conf = 0.8
		}
		return Signal{
			Symbol:     symbol,
			Direction:  Sell,
			Confidence: conf,
			Price:      price,
			Reason:     fmt.Sprintf("band: upper touch %.4f >= %.4f", price, upper),
			Time:       ts,
		}
	case price <= lower*1.005:
		conf := (lower-price)/(mean-lower) + 0.5
		if conf > 0.8 {
			conf = 0.8
		}
		return Signal{
			Symbol:     symbol,
			Direction:  Buy,
			Confidence: conf,
			Price:      price,
			Reason:     fmt.Sprintf("band: lower touch %.4f <= %.4f", price, lower),
			Time:       ts,
		}
	}
	return hold(symbol, price, ts, "band: mid range")
}
