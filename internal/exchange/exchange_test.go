package exchange

import (
	"context"
	"testing"
	"time"

	"scalpbot-go/internal/market"
)

func TestFormatQty(t *testing.T) {
	cases := []struct {
		qty, step float64
		want      string
	}{
		{1.2345, 0.001, "1.234"},
		{1.2345, 0.01, "1.23"},
		{7.9, 1, "7"},
		{150, 10, "150"},
		{0.00923, 0.0001, "0.0092"},
	}
	for _, tc := range cases {
		if got := formatQty(tc.qty, tc.step); got != tc.want {
			t.Fatalf("formatQty(%v, %v) = %q, want %q", tc.qty, tc.step, got, tc.want)
		}
	}
}

func TestStubCandleLimit(t *testing.T) {
	s := NewStub(1000)
	series := make(market.Series, 50)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range series {
		series[i] = market.Candle{Time: start.Add(time.Duration(i) * time.Minute), Close: float64(i)}
	}
	s.SetCandles("BTCUSDT", "1m", series)

	got, err := s.Candles(context.Background(), "BTCUSDT", "1m", 10)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(got) != 10 || got[0].Close != 40 {
		t.Fatalf("expected trailing 10 candles, got %d starting at %.0f", len(got), got[0].Close)
	}
}

func TestStubOrderRecording(t *testing.T) {
	s := NewStub(1000)
	s.SetPrice("BTCUSDT", 50000)

	res, err := s.PlaceOrder(context.Background(), OrderRequest{Symbol: "BTCUSDT", Side: SideBuy, Quantity: 2})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.FilledQty != 2 || res.AvgPrice != 50000 {
		t.Fatalf("unexpected fill: %+v", res)
	}
	if len(s.Orders) != 1 || s.Orders[0].Side != SideBuy {
		t.Fatalf("order not recorded: %+v", s.Orders)
	}
}

func TestStreamingGatewayPrefersFreshStream(t *testing.T) {
	s := NewStub(1000)
	s.SetPrice("BTCUSDT", 50000)
	g := NewStreamingGateway(s, 10*time.Second)

	// No stream data yet, falls through to the wrapped gateway.
	px, err := g.LastPrice(context.Background(), "BTCUSDT")
	if err != nil || px != 50000 {
		t.Fatalf("expected REST fallback 50000, got %v err %v", px, err)
	}

	g.Apply(PriceUpdate{Symbol: "BTCUSDT", Price: 50123, Ts: time.Now()})
	px, err = g.LastPrice(context.Background(), "BTCUSDT")
	if err != nil || px != 50123 {
		t.Fatalf("expected streamed 50123, got %v err %v", px, err)
	}

	g.Apply(PriceUpdate{Symbol: "BTCUSDT", Price: 50456, Ts: time.Now().Add(-time.Minute)})
	px, err = g.LastPrice(context.Background(), "BTCUSDT")
	if err != nil || px != 50000 {
		t.Fatalf("stale stream data must fall back to REST, got %v err %v", px, err)
	}
}
