// Package strategy contains the signal engine: candle pattern detection,
// market-structure classification, and the confidence-scored signal composer.
package strategy

import "time"

// Direction is the actionable side of a signal.
type Direction int

const (
	Hold Direction = iota
	Buy
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Trend labels the higher-timeframe direction and also serves as the
// direction of a detected candle pattern (Neutral meaning "none").
type Trend int

const (
	TrendNeutral Trend = iota
	TrendBullish
	TrendBearish
)

func (t Trend) String() string {
	switch t {
	case TrendBullish:
		return "bullish"
	case TrendBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Structure classifies a candle window's market regime.
type Structure int

const (
	StructureNeutral Structure = iota
	StructureTrending
	StructureChoppy
	StructureTightSideways
)

func (s Structure) String() string {
	switch s {
	case StructureTrending:
		return "trending"
	case StructureChoppy:
		return "choppy"
	case StructureTightSideways:
		return "tight_sideways"
	default:
		return "neutral"
	}
}

// Signal is the composer's output for one instrument at one evaluation. It is
// produced and consumed within a single scheduler tick, never persisted.
// HOLD signals always carry confidence 0.
type Signal struct {
	Symbol     string
	Direction  Direction
	Confidence float64
	Price      float64
	Reason     string
	Time       time.Time
}

// Actionable reports whether the signal clears the entry gate.
func (s Signal) Actionable(minConfidence float64) bool {
	return s.Direction != Hold && s.Confidence >= minConfidence
}

func hold(symbol string, price float64, ts time.Time, reason string) Signal {
	return Signal{Symbol: symbol, Direction: Hold, Price: price, Reason: reason, Time: ts}
}
