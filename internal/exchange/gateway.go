// Package exchange wraps futures-exchange connectivity behind a small
// gateway interface so the engine and tests never talk to a venue directly.
package exchange

import (
	"context"
	"time"

	"scalpbot-go/internal/market"
)

// Side is the order side on the venue.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderRequest describes a market order in native instrument units.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Quantity   float64
	ReduceOnly bool
	ClientID   string
}

// OrderResult reports what the venue actually did with an order.
type OrderResult struct {
	OrderID   string
	FilledQty float64
	AvgPrice  float64
}

// ContractMeta carries the per-instrument sizing rules published by the venue.
// Multiplier is base units per native contract unit; USDT-margined venues
// quote in base units directly and report 1.
type ContractMeta struct {
	Symbol     string
	Multiplier float64
	MinQty     float64
	StepSize   float64
}

// PositionInfo is the venue's view of one open position. Size is signed:
// positive long, negative short, in native units.
type PositionInfo struct {
	Symbol        string
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnL float64
}

// SymbolStat is one row of the 24h volume ranking.
type SymbolStat struct {
	Symbol      string
	QuoteVolume float64
	LastPrice   float64
}

// PriceUpdate is a single mark-price tick off the streaming feed.
type PriceUpdate struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

// Gateway is everything the engine needs from a futures venue.
type Gateway interface {
	Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	Balance(ctx context.Context) (float64, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	ContractMeta(ctx context.Context, symbol string) (ContractMeta, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	OpenPositions(ctx context.Context) ([]PositionInfo, error)
	TopVolumeSymbols(ctx context.Context, n int) ([]SymbolStat, error)
}
