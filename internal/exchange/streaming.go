package exchange

import (
	"context"
	"sync"
	"time"
)

// StreamingGateway layers streamed mark prices over a REST gateway. LastPrice
// is served from the stream while the cached update is younger than maxAge,
// and falls back to the wrapped gateway otherwise.
type StreamingGateway struct {
	Gateway
	maxAge time.Duration

	mu     sync.RWMutex
	prices map[string]PriceUpdate
}

func NewStreamingGateway(gw Gateway, maxAge time.Duration) *StreamingGateway {
	if maxAge <= 0 {
		maxAge = 10 * time.Second
	}
	return &StreamingGateway{
		Gateway: gw,
		maxAge:  maxAge,
		prices:  make(map[string]PriceUpdate),
	}
}

// Apply records one streamed update. Safe to call from the stream goroutine.
func (g *StreamingGateway) Apply(u PriceUpdate) {
	if u.Symbol == "" || u.Price <= 0 {
		return
	}
	g.mu.Lock()
	g.prices[u.Symbol] = u
	g.mu.Unlock()
}

func (g *StreamingGateway) LastPrice(ctx context.Context, symbol string) (float64, error) {
	g.mu.RLock()
	u, ok := g.prices[symbol]
	g.mu.RUnlock()
	if ok && time.Since(u.Ts) <= g.maxAge {
		return u.Price, nil
	}
	return g.Gateway.LastPrice(ctx, symbol)
}
