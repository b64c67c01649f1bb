package strategy

import (
	"fmt"
	"sync"
	"time"

	"scalpbot-go/internal/indicator"
	"scalpbot-go/internal/market"
)

// ComposerConfig bundles every knob of the signal pipeline.
type ComposerConfig struct {
	Pattern   PatternConfig   `yaml:"pattern"`
	Structure StructureConfig `yaml:"structure"`
	Sideways  SidewaysConfig  `yaml:"sideways"`

	MinVolatility    float64       `yaml:"min_volatility"`
	MaxVolatility    float64       `yaml:"max_volatility"`
	VolatilityWindow int           `yaml:"volatility_window"`
	MinSignalSpacing time.Duration `yaml:"min_signal_spacing"`
	MinConfidence    float64       `yaml:"min_confidence"`
	UseVolumeFilter  bool          `yaml:"use_volume_filter"`

	// Alignment overrides are policy, not constants: the thresholds varied
	// across deployments and stay configurable.
	StrongSignalThreshold float64 `yaml:"strong_signal_threshold"`
	NeutralEntryThreshold float64 `yaml:"neutral_entry_threshold"`
}

// DefaultComposerConfig returns the validated live-trading defaults.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		Pattern:               DefaultPatternConfig(),
		Structure:             DefaultStructureConfig(),
		Sideways:              DefaultSidewaysConfig(),
		MinVolatility:         0.001,
		MaxVolatility:         0.05,
		VolatilityWindow:      20,
		MinSignalSpacing:      time.Minute,
		MinConfidence:         0.40,
		UseVolumeFilter:       true,
		StrongSignalThreshold: 0.70,
		NeutralEntryThreshold: 0.50,
	}
}

// confidence ceiling applied after every multiplier.
const maxConfidence = 0.95

// Composer turns per-instrument candle windows into confidence-scored
// directional signals. Signals are transient; the composer only remembers
// the last non-HOLD emission time per symbol to enforce spacing.
type Composer struct {
	cfg ComposerConfig

	mu         sync.Mutex
	lastSignal map[string]time.Time
}

// NewComposer builds a composer with the supplied configuration.
func NewComposer(cfg ComposerConfig) *Composer {
	if cfg.VolatilityWindow <= 0 {
		cfg.VolatilityWindow = 20
	}
	if cfg.MinSignalSpacing <= 0 {
		cfg.MinSignalSpacing = time.Minute
	}
	return &Composer{cfg: cfg, lastSignal: make(map[string]time.Time)}
}

// Config exposes the active configuration (entry gates live here too).
func (c *Composer) Config() ComposerConfig { return c.cfg }

// Evaluate runs the full pipeline for one instrument at the current candle.
func (c *Composer) Evaluate(symbol string, ltf market.Series, now time.Time) Signal {
	price := ltf.LastClose()
	if len(ltf) < 20 {
		return hold(symbol, price, now, "insufficient history")
	}

	closes := ltf.Closes()
	vol, ok := indicator.Volatility(closes, c.cfg.VolatilityWindow)
	if !ok || vol < c.cfg.MinVolatility || vol > c.cfg.MaxVolatility {
		return hold(symbol, price, now, fmt.Sprintf("volatility %.4f outside gate", vol))
	}

	if !c.spacingElapsed(symbol, now) {
		return hold(symbol, price, now, "signal spacing not elapsed")
	}

	structure := ClassifyStructure(c.cfg.Structure, ltf)

	var sig Signal
	sidewaysMode := c.cfg.Sideways.Enabled && DetectOscillation(c.cfg.Sideways, ltf, c.cfg.Structure.ATRPeriod)
	if sidewaysMode {
		sig = BandSignal(c.cfg.Sideways, symbol, ltf, now)
	} else {
		sig = c.patternSignal(symbol, ltf, structure, now)
	}

	if sig.Direction == Hold {
		return hold(symbol, price, now, sig.Reason)
	}

	if !sidewaysMode && c.cfg.UseVolumeFilter && !volumeConfirmed(ltf) {
		sig.Confidence *= 0.7
		sig.Reason += " (weak volume)"
	}
	if sig.Confidence > maxConfidence {
		sig.Confidence = maxConfidence
	}

	if sig.Confidence < c.cfg.MinConfidence {
		return hold(symbol, price, now, fmt.Sprintf("confidence %.2f below gate", sig.Confidence))
	}

	c.recordSignal(symbol, now)
	return sig
}

func (c *Composer) patternSignal(symbol string, ltf market.Series, structure Structure, now time.Time) Signal {
	price := ltf.LastClose()
	p := DetectPattern(c.cfg.Pattern, ltf)
	if !p.Confirmed {
		return hold(symbol, price, now, "no pattern")
	}

	conf := 0.3 + 0.1*float64(p.RunLength-c.cfg.Pattern.MinConsecutive)
	if conf > 0.9 {
		conf = 0.9
	}
	dir := Buy
	if p.Direction == TrendBearish {
		dir = Sell
	}

	switch structure {
	case StructureTrending:
		conf *= 1.1
	case StructureTightSideways:
		conf *= 0.8
	case StructureChoppy:
		conf *= 0.7
	}

	return Signal{
		Symbol:     symbol,
		Direction:  dir,
		Confidence: conf,
		Price:      price,
		Reason:     fmt.Sprintf("%d-candle %s run, structure=%s", p.RunLength, p.Direction, structure),
		Time:       now,
	}
}

// volumeConfirmed checks the last candle against 80% of the ten-candle
// trailing average; thin prints weaken trend-mode signals.
func volumeConfirmed(s market.Series) bool {
	if len(s) < 10 {
		return true
	}
	window := s.Tail(10)
	var sum float64
	for _, c := range window {
		sum += c.Volume
	}
	avg := sum / float64(len(window))
	return window[len(window)-1].Volume > avg*0.8
}

func (c *Composer) spacingElapsed(symbol string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastSignal[symbol]
	return !ok || now.Sub(last) >= c.cfg.MinSignalSpacing
}

func (c *Composer) recordSignal(symbol string, now time.Time) {
	c.mu.Lock()
	c.lastSignal[symbol] = now
	c.mu.Unlock()
}

// TrendDepth is the minimum number of higher-timeframe candles HTFTrend
// needs before it classifies anything other than neutral. Callers that cache
// lower-timeframe history must retain at least this many resample buckets.
const TrendDepth = 20

// HTFTrend derives the higher-timeframe direction from a 20/50 EMA stack:
// price above both and the fast EMA above the slow is bullish, the mirror is
// bearish, anything else neutral. Fewer than TrendDepth candles is always
// neutral.
func HTFTrend(htf market.Series) Trend {
	if len(htf) < TrendDepth {
		return TrendNeutral
	}
	closes := htf.Closes()
	e20, ok1 := indicator.EMA(closes, 20)
	e50, ok2 := indicator.EMA(closes, 50)
	if !ok1 || !ok2 {
		return TrendNeutral
	}
	price := htf.LastClose()
	switch {
	case price > e20 && e20 > e50:
		return TrendBullish
	case price < e20 && e20 < e50:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// Aligned reports whether a signal may act under the given higher-timeframe
// trend. A direction match always passes; a sufficiently strong signal is
// allowed to fight the trend, and a moderately confident one may enter while
// the trend itself is undecided.
func (c *Composer) Aligned(sig Signal, trend Trend) bool {
	if sig.Direction == Hold {
		return false
	}
	if (trend == TrendBullish && sig.Direction == Buy) || (trend == TrendBearish && sig.Direction == Sell) {
		return true
	}
	if sig.Confidence > c.cfg.StrongSignalThreshold {
		return true
	}
	return trend == TrendNeutral && sig.Confidence > c.cfg.NeutralEntryThreshold
}
