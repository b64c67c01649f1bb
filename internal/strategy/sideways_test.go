package strategy

import (
	"strings"
	"testing"
	"time"

	"scalpbot-go/internal/market"
)

func seriesFromCloses(closes ...float64) market.Series {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := make(market.Series, len(closes))
	for i, c := range closes {
		s[i] = market.Candle{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return s
}

func TestDetectOscillationConfirmed(t *testing.T) {
	// highs and lows alternate every candle: four peaks and four valleys
	// inside the ten-candle window, range well inside the ATR envelope
	s := buildSeries(20, func(i int) market.Candle {
		c := market.Candle{Open: 100, High: 101, Low: 100, Close: 100.5}
		if i%2 == 1 {
			c.High = 102
		} else {
			c.Low = 99
		}
		return c
	})
	cfg := DefaultSidewaysConfig()
	if !DetectOscillation(cfg, s, 14) {
		t.Fatalf("expected oscillation to confirm")
	}
}

func TestDetectOscillationRejectsTrend(t *testing.T) {
	s := buildSeries(20, func(i int) market.Candle {
		base := 100.0 + 2.0*float64(i)
		return market.Candle{Open: base - 0.25, High: base + 0.5, Low: base - 0.5, Close: base + 0.25}
	})
	if DetectOscillation(DefaultSidewaysConfig(), s, 14) {
		t.Fatalf("trending series must not read as oscillation")
	}
}

func TestDetectOscillationShortSeries(t *testing.T) {
	s := buildSeries(8, func(i int) market.Candle {
		return market.Candle{Open: 100, High: 101, Low: 99, Close: 100}
	})
	if DetectOscillation(DefaultSidewaysConfig(), s, 14) {
		t.Fatalf("short series must not confirm")
	}
}

func TestBandSignalUpperTouchSells(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 106
	sig := BandSignal(DefaultSidewaysConfig(), "BTCUSDT", seriesFromCloses(closes...), time.Now())
	if sig.Direction != Sell {
		t.Fatalf("expected SELL at upper band, got %s (%s)", sig.Direction, sig.Reason)
	}
	if sig.Confidence <= 0 || sig.Confidence > 0.8 {
		t.Fatalf("confidence out of band cap: %v", sig.Confidence)
	}
}

func TestBandSignalLowerTouchBuys(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 94
	sig := BandSignal(DefaultSidewaysConfig(), "BTCUSDT", seriesFromCloses(closes...), time.Now())
	if sig.Direction != Buy {
		t.Fatalf("expected BUY at lower band, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestBandSignalNarrowBandHolds(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	sig := BandSignal(DefaultSidewaysConfig(), "BTCUSDT", seriesFromCloses(closes...), time.Now())
	if sig.Direction != Hold || !strings.Contains(sig.Reason, "width") {
		t.Fatalf("flat prices must hold, got %s (%s)", sig.Direction, sig.Reason)
	}
}

func TestBandSignalInsufficientHistory(t *testing.T) {
	sig := BandSignal(DefaultSidewaysConfig(), "BTCUSDT", seriesFromCloses(100, 101, 100), time.Now())
	if sig.Direction != Hold {
		t.Fatalf("expected HOLD, got %s", sig.Direction)
	}
}
