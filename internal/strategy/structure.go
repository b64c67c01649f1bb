package strategy

import (
	"math"

	"scalpbot-go/internal/indicator"
	"scalpbot-go/internal/market"
)

// StructureConfig tunes the market-structure classifier.
type StructureConfig struct {
	Lookback       int     `yaml:"lookback"`
	ATRPeriod      int     `yaml:"atr_period"`
	ChoppyRangeATR float64 `yaml:"choppy_range_atr"`
	TightRangeATR  float64 `yaml:"tight_range_atr"`
	TrendSlopeATR  float64 `yaml:"trend_slope_atr"`
}

// DefaultStructureConfig returns the classifier defaults.
func DefaultStructureConfig() StructureConfig {
	return StructureConfig{
		Lookback:       30,
		ATRPeriod:      14,
		ChoppyRangeATR: 35.0,
		TightRangeATR:  3.0,
		TrendSlopeATR:  0.5,
	}
}

// ClassifyStructure labels the trailing window. Check order matters: choppy
// and tight-sideways take priority over trend detection, because a trend fit
// over chaotic data is not reliable.
func ClassifyStructure(cfg StructureConfig, s market.Series) Structure {
	if len(s) < cfg.Lookback {
		return StructureNeutral
	}
	window := s.Tail(cfg.Lookback)

	atr, ok := indicator.ATR(s, cfg.ATRPeriod)
	if !ok || atr <= 0 {
		// not enough candles for a true ATR; proxy with 1% of price
		atr = s.LastClose() * 0.01
	}
	if atr <= 0 {
		return StructureNeutral
	}

	high, low := window[0].High, window[0].Low
	highs := make([]float64, len(window))
	for i, c := range window {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		highs[i] = c.High
	}

	rangeATR := (high - low) / atr
	switch {
	case rangeATR > cfg.ChoppyRangeATR:
		return StructureChoppy
	case rangeATR < cfg.TightRangeATR:
		return StructureTightSideways
	}
	if slope, ok := indicator.Slope(highs); ok && math.Abs(slope)/atr > cfg.TrendSlopeATR {
		return StructureTrending
	}
	return StructureNeutral
}
