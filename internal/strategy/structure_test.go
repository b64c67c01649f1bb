package strategy

import (
	"testing"
	"time"

	"scalpbot-go/internal/market"
)

// buildSeries constructs n candles from per-index OHLC functions.
func buildSeries(n int, f func(i int) market.Candle) market.Series {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := make(market.Series, n)
	for i := range s {
		c := f(i)
		c.Time = start.Add(time.Duration(i) * time.Minute)
		c.Volume = 1000
		s[i] = c
	}
	return s
}

func TestClassifyStructureTrending(t *testing.T) {
	// steady 2-point climb per candle: slope dominates the per-candle range
	s := buildSeries(35, func(i int) market.Candle {
		base := 100.0 + 2.0*float64(i)
		return market.Candle{Open: base - 0.25, High: base + 0.5, Low: base - 0.5, Close: base + 0.25}
	})
	if got := ClassifyStructure(DefaultStructureConfig(), s); got != StructureTrending {
		t.Fatalf("expected trending, got %s", got)
	}
}

func TestClassifyStructureChoppy(t *testing.T) {
	// a spike early in the lookback window that the trailing ATR never sees
	s := buildSeries(35, func(i int) market.Candle {
		c := market.Candle{Open: 100, High: 101, Low: 99, Close: 100}
		if i == 5 {
			c.High = 200
		}
		return c
	})
	if got := ClassifyStructure(DefaultStructureConfig(), s); got != StructureChoppy {
		t.Fatalf("expected choppy, got %s", got)
	}
}

func TestClassifyStructureTightSideways(t *testing.T) {
	s := buildSeries(35, func(i int) market.Candle {
		return market.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100}
	})
	if got := ClassifyStructure(DefaultStructureConfig(), s); got != StructureTightSideways {
		t.Fatalf("expected tight sideways, got %s", got)
	}
}

func TestClassifyStructureNeutralOnWeakSlope(t *testing.T) {
	// drifting up one point per candle inside ten-point candles: too weak
	s := buildSeries(35, func(i int) market.Candle {
		base := 100.0 + float64(i)
		return market.Candle{Open: base - 0.25, High: base + 5, Low: base - 5, Close: base + 0.25}
	})
	if got := ClassifyStructure(DefaultStructureConfig(), s); got != StructureNeutral {
		t.Fatalf("expected neutral, got %s", got)
	}
}

func TestClassifyStructureShortSeries(t *testing.T) {
	s := buildSeries(10, func(i int) market.Candle {
		return market.Candle{Open: 100, High: 101, Low: 99, Close: 100}
	})
	if got := ClassifyStructure(DefaultStructureConfig(), s); got != StructureNeutral {
		t.Fatalf("expected neutral for short history, got %s", got)
	}
}
