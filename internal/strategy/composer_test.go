package strategy

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestPatternSignalStructureMultipliers(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	now := time.Now()
	s := runSeries(10, -1, 1, 1, 1, 1) // trailing 4-candle bullish run

	cases := []struct {
		structure Structure
		want      float64
	}{
		{StructureTrending, 0.44},
		{StructureNeutral, 0.40},
		{StructureTightSideways, 0.32},
		{StructureChoppy, 0.28},
	}
	for _, tc := range cases {
		sig := c.patternSignal("BTCUSDT", s, tc.structure, now)
		if sig.Direction != Buy {
			t.Fatalf("%s: expected BUY, got %s (%s)", tc.structure, sig.Direction, sig.Reason)
		}
		if math.Abs(sig.Confidence-tc.want) > 1e-9 {
			t.Fatalf("%s: confidence = %v, want %v", tc.structure, sig.Confidence, tc.want)
		}
	}
}

func TestPatternSignalHoldsWithoutPattern(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	s := seriesFromCloses(100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101)
	sig := c.patternSignal("BTCUSDT", s, StructureNeutral, time.Now())
	if sig.Direction != Hold || sig.Confidence != 0 {
		t.Fatalf("expected zero-confidence HOLD, got %+v", sig)
	}
}

func TestEvaluateVolatilityGate(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	sig := c.Evaluate("BTCUSDT", seriesFromCloses(closes...), time.Now())
	if sig.Direction != Hold || !strings.Contains(sig.Reason, "volatility") {
		t.Fatalf("flat market must hold on volatility, got %+v", sig)
	}
}

func TestEvaluateSignalSpacing(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := runSeries(26, -1, 1, 1, 1, 1)

	first := c.Evaluate("BTCUSDT", s, now)
	if first.Direction != Buy {
		t.Fatalf("expected BUY on first evaluation, got %s (%s)", first.Direction, first.Reason)
	}
	second := c.Evaluate("BTCUSDT", s, now.Add(10*time.Second))
	if second.Direction != Hold || !strings.Contains(second.Reason, "spacing") {
		t.Fatalf("expected spacing hold, got %+v", second)
	}
	// a different symbol is not throttled
	other := c.Evaluate("ETHUSDT", s, now.Add(10*time.Second))
	if other.Direction != Buy {
		t.Fatalf("spacing must be per symbol, got %+v", other)
	}
	third := c.Evaluate("BTCUSDT", s, now.Add(2*time.Minute))
	if third.Direction != Buy {
		t.Fatalf("expected BUY after spacing elapsed, got %+v", third)
	}
}

func TestEvaluateWeakVolumePenalty(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	s := runSeries(26, -1, 1, 1, 1, 1)
	s[len(s)-1].Volume = 100 // far below the ten-candle average

	sig := c.Evaluate("BTCUSDT", s, time.Now())
	if sig.Direction != Hold || !strings.Contains(sig.Reason, "confidence") {
		t.Fatalf("penalized confidence must fall below the gate, got %+v", sig)
	}
}

func TestHTFTrend(t *testing.T) {
	rising := make([]float64, 60)
	falling := make([]float64, 60)
	flat := make([]float64, 60)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 200 - float64(i)
		flat[i] = 100
	}

	if got := HTFTrend(seriesFromCloses(rising...)); got != TrendBullish {
		t.Fatalf("rising closes: got %s", got)
	}
	if got := HTFTrend(seriesFromCloses(falling...)); got != TrendBearish {
		t.Fatalf("falling closes: got %s", got)
	}
	if got := HTFTrend(seriesFromCloses(flat...)); got != TrendNeutral {
		t.Fatalf("flat closes: got %s", got)
	}
	if got := HTFTrend(seriesFromCloses(rising[:10]...)); got != TrendNeutral {
		t.Fatalf("short history: got %s", got)
	}
}

func TestAligned(t *testing.T) {
	c := NewComposer(DefaultComposerConfig())
	sig := func(d Direction, conf float64) Signal {
		return Signal{Symbol: "BTCUSDT", Direction: d, Confidence: conf}
	}

	cases := []struct {
		name  string
		sig   Signal
		trend Trend
		want  bool
	}{
		{"match bullish", sig(Buy, 0.45), TrendBullish, true},
		{"match bearish", sig(Sell, 0.45), TrendBearish, true},
		{"counter-trend weak", sig(Sell, 0.60), TrendBullish, false},
		{"counter-trend strong", sig(Sell, 0.75), TrendBullish, true},
		{"neutral moderate", sig(Buy, 0.55), TrendNeutral, true},
		{"neutral weak", sig(Buy, 0.45), TrendNeutral, false},
		{"hold never aligns", sig(Hold, 0.99), TrendBullish, false},
	}
	for _, tc := range cases {
		if got := c.Aligned(tc.sig, tc.trend); got != tc.want {
			t.Fatalf("%s: Aligned = %v, want %v", tc.name, got, tc.want)
		}
	}
}
