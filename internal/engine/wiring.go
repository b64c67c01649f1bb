package engine

import (
	"time"

	"scalpbot-go/internal/config"
	"scalpbot-go/internal/position"
	"scalpbot-go/internal/strategy"
)

// FromConfig maps the YAML tree onto the scheduler cadence.
func FromConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	if c.Trading.Interval != "" {
		cfg.Interval = c.Trading.Interval
	}
	if d, err := time.ParseDuration(c.Trading.HTFInterval); err == nil && d > 0 {
		cfg.HTFBucket = d
	}
	if c.Trading.CandleLimit > 0 {
		cfg.CandleLimit = c.Trading.CandleLimit
	}
	if c.Trading.CycleMs > 0 {
		cfg.Cycle = time.Duration(c.Trading.CycleMs) * time.Millisecond
	}
	if c.Trading.SymbolDelayMs > 0 {
		cfg.SymbolDelay = time.Duration(c.Trading.SymbolDelayMs) * time.Millisecond
	}
	if c.Trading.FreshnessSecs > 0 {
		cfg.Freshness = time.Duration(c.Trading.FreshnessSecs) * time.Second
	}
	if c.Exchange.UniverseSecs > 0 {
		cfg.UniverseRefresh = time.Duration(c.Exchange.UniverseSecs) * time.Second
	}
	cfg.ReconcileEvery = time.Duration(c.Trading.ReconcileSecs) * time.Second
	cfg.UniverseSize = c.Exchange.UniverseSize
	if c.Trading.Leverage > 0 {
		cfg.Leverage = c.Trading.Leverage
	}
	cfg.Symbols = append([]string(nil), c.Exchange.Symbols...)
	return cfg
}

// ComposerFromConfig maps the strategy block onto the signal pipeline.
func ComposerFromConfig(c *config.Config) strategy.ComposerConfig {
	s := c.Strategy
	return strategy.ComposerConfig{
		Pattern: strategy.PatternConfig{
			MinConsecutive:     s.MinConsecutive,
			MaxConsecutive:     s.MaxConsecutive,
			BodyRatioThreshold: s.BodyRatioThreshold,
		},
		Structure: strategy.StructureConfig{
			Lookback:       s.Structure.Lookback,
			ATRPeriod:      s.Structure.ATRPeriod,
			ChoppyRangeATR: s.Structure.ChoppyRangeATR,
			TightRangeATR:  s.Structure.TightRangeATR,
			TrendSlopeATR:  s.Structure.TrendSlopeATR,
		},
		Sideways: strategy.SidewaysConfig{
			Enabled:         s.Sideways.Enabled,
			Lookback:        s.Sideways.Lookback,
			RangeATRMult:    s.Sideways.RangeATRMult,
			MinOscillations: s.Sideways.MinOscillations,
			MaxOscillations: s.Sideways.MaxOscillations,
			BandPeriod:      s.Sideways.BandPeriod,
			BandStdDev:      s.Sideways.BandStdDev,
		},
		MinVolatility:         s.MinVolatility,
		MaxVolatility:         s.MaxVolatility,
		VolatilityWindow:      s.VolatilityWindow,
		MinSignalSpacing:      time.Duration(s.SignalSpacingSecs) * time.Second,
		MinConfidence:         s.MinConfidence,
		UseVolumeFilter:       s.UseVolumeFilter,
		StrongSignalThreshold: s.StrongSignalThreshold,
		NeutralEntryThreshold: s.NeutralEntryThreshold,
	}
}

// PositionFromConfig maps the trading block onto the lifecycle manager.
func PositionFromConfig(c *config.Config) position.Config {
	cfg := position.DefaultConfig()
	t := c.Trading
	if t.Leverage > 0 {
		cfg.Leverage = t.Leverage
	}
	if t.Allocation > 0 {
		cfg.Allocation = t.Allocation
	}
	cfg.MaxPositions = t.MaxPositions
	if t.StopATRMult > 0 {
		cfg.StopATRMult = t.StopATRMult
	}
	if t.TargetATRMult > 0 {
		cfg.TargetATRMult = t.TargetATRMult
	}
	if t.PartialFraction > 0 {
		cfg.PartialFraction = t.PartialFraction
	}
	if t.TimeLimitSecs > 0 {
		cfg.TimeLimit = time.Duration(t.TimeLimitSecs) * time.Second
	}
	return cfg
}
